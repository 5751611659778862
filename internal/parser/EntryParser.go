// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackbister/maildunk/internal/records"
)

// TimeLayout is the fixed timestamp layout used by the connector log,
// following Go's time.Parse style. Example: "1.2.2020 10:00:00".
const TimeLayout = "2.1.2006 15:04:05"

// ErrMissingTimestamp is returned when an entry contains no timestamp and no
// inherited timestamp was supplied. This can only happen for the very first
// entry in the lifetime of a log file and means the file does not start with a
// "check at" header.
var ErrMissingTimestamp = errors.New("entry has no timestamp and there is no previous entry to inherit one from")

// The "[local time]" qualifier is optional - older connector versions log
// "check at:" without it.
var checkAtRegex = regexp.MustCompile(`(?i)check\s+at(?:\s*\[local time\])?\s*:\s*(\d{1,2}\.\d{1,2}\.\d{4}\s+\d{1,2}:\d{2}:\d{2})`)

var newMessagesRegex = regexp.MustCompile(`(\w+)\s*->\s*(\d+)\s+new messages`)

// errorMarker is matched case-sensitively. Relaxing this would change how
// existing log files are classified.
const errorMarker = "Error"

// ParseEntry converts one raw entry into a Record. inherited is the previous
// record's timestamp and is used when the entry itself contains none; pass nil
// for the first entry of a run.
func ParseEntry(raw string, inherited *time.Time) (records.Record, error) {
	timestamp, err := extractTimestamp(raw, inherited)
	if err != nil {
		return records.Record{}, err
	}
	return records.Record{
		Timestamp: timestamp,
		IsError:   strings.Contains(raw, errorMarker),
		MailCount: sumMailCount(raw),
		Raw:       raw,
	}, nil
}

func extractTimestamp(raw string, inherited *time.Time) (time.Time, error) {
	match := checkAtRegex.FindStringSubmatch(raw)
	if match == nil {
		if inherited == nil {
			return time.Time{}, ErrMissingTimestamp
		}
		return *inherited, nil
	}
	t, err := time.Parse(TimeLayout, normalizeSpaces(match[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing timestamp value='%s' with layout='%s': %w", match[1], TimeLayout, err)
	}
	return t, nil
}

func sumMailCount(raw string) int {
	sum := 0
	for _, match := range newMessagesRegex.FindAllStringSubmatch(raw, -1) {
		// The regex only matches digits so Atoi cannot fail here.
		n, _ := strconv.Atoi(match[2])
		sum += n
	}
	return sum
}

// normalizeSpaces collapses the whitespace between the date and time portions
// so that entries reflowed across line breaks still parse.
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
