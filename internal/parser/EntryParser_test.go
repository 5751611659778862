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
	"testing"
	"time"
)

func TestParseEntryExtractsTimestamp(t *testing.T) {
	raw := "check at: 1.2.2020 10:00:00\nFoo -> 2 new messages"

	rec, err := ParseEntry(raw, nil)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}

	expected := time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(expected) {
		t.Errorf("expected timestamp %v but got %v", expected, rec.Timestamp)
	}
	if rec.IsError {
		t.Errorf("expected IsError to be false")
	}
	if rec.MailCount != 2 {
		t.Errorf("expected MailCount 2 but got %v", rec.MailCount)
	}
	if rec.Raw != raw {
		t.Errorf("expected Raw to be preserved verbatim, got %q", rec.Raw)
	}
}

func TestParseEntryLocalTimeQualifier(t *testing.T) {
	rec, err := ParseEntry("Check at [local time]: 24.12.2021 23:59:59", nil)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	expected := time.Date(2021, 12, 24, 23, 59, 59, 0, time.UTC)
	if !rec.Timestamp.Equal(expected) {
		t.Errorf("expected timestamp %v but got %v", expected, rec.Timestamp)
	}
}

func TestParseEntryTimestampMatchIsCaseInsensitive(t *testing.T) {
	rec, err := ParseEntry("CHECK AT: 3.4.2022 08:15:00", nil)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	expected := time.Date(2022, 4, 3, 8, 15, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(expected) {
		t.Errorf("expected timestamp %v but got %v", expected, rec.Timestamp)
	}
}

func TestParseEntryInheritsTimestamp(t *testing.T) {
	inherited := time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC)

	rec, err := ParseEntry("Bar -> 1 new messages", &inherited)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	if !rec.Timestamp.Equal(inherited) {
		t.Errorf("expected inherited timestamp %v but got %v", inherited, rec.Timestamp)
	}
}

func TestParseEntryMissingTimestamp(t *testing.T) {
	_, err := ParseEntry("Bar -> 1 new messages", nil)
	if !errors.Is(err, ErrMissingTimestamp) {
		t.Fatalf("expected ErrMissingTimestamp but got %v", err)
	}
}

func TestParseEntryErrorFlagIsCaseSensitive(t *testing.T) {
	inherited := time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC)

	rec, err := ParseEntry("Error: connection refused", &inherited)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	if !rec.IsError {
		t.Errorf("expected IsError to be true for an entry containing 'Error'")
	}

	rec, err = ParseEntry("an error occurred", &inherited)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	if rec.IsError {
		t.Errorf("expected IsError to be false for lowercase 'error'")
	}
}

func TestParseEntryMailCountSummation(t *testing.T) {
	inherited := time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC)

	rec, err := ParseEntry("A -> 3 new messages\nB -> 5 new messages", &inherited)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	if rec.MailCount != 8 {
		t.Errorf("expected MailCount 8 but got %v", rec.MailCount)
	}
}

func TestParseEntryMailCountZeroWhenNoMatches(t *testing.T) {
	inherited := time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC)

	rec, err := ParseEntry("A -> no new messages", &inherited)
	if err != nil {
		t.Fatalf("got error when parsing entry: %v", err)
	}
	if rec.MailCount != 0 {
		t.Errorf("expected MailCount 0 but got %v", rec.MailCount)
	}
}
