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

package ingest

import (
	"fmt"
	"time"

	"github.com/jackbister/maildunk/internal/parser"
	"github.com/jackbister/maildunk/internal/records"
	"github.com/jackbister/maildunk/internal/segment"

	"go.uber.org/zap"
)

// Pipeline drives the Segmenter and the entry parser in lock-step, producing
// Records one at a time in file order. Each record that lacks its own
// timestamp inherits the timestamp of the record before it; the first record
// of a run must carry its own. Pipeline implements records.RecordSource.
type Pipeline struct {
	seg *segment.Segmenter

	// prev is the previous record's timestamp, threaded through the run so
	// that entries without a "check at" header can inherit it.
	prev *time.Time

	rec records.Record
	err error
}

func NewPipeline(logPath string, offset int64, logger *zap.Logger) (*Pipeline, error) {
	seg, err := segment.NewSegmenter(logPath, offset, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		seg: seg,
	}, nil
}

// Scan advances to the next record. It returns false when the log file is
// exhausted or when segmentation or parsing failed; Err distinguishes the two.
func (p *Pipeline) Scan() bool {
	if p.err != nil {
		return false
	}
	if !p.seg.Scan() {
		p.err = p.seg.Err()
		return false
	}
	rec, err := parser.ParseEntry(p.seg.Entry(), p.prev)
	if err != nil {
		p.err = fmt.Errorf("error parsing entry at offset=%v: %w", p.seg.Offset(), err)
		return false
	}
	p.rec = rec
	t := rec.Timestamp
	p.prev = &t
	return true
}

func (p *Pipeline) Record() records.Record {
	return p.rec
}

func (p *Pipeline) Err() error {
	return p.err
}

// Offset returns the new ingestion checkpoint. It must only be committed once
// every record produced by Scan has been durably persisted.
func (p *Pipeline) Offset() int64 {
	return p.seg.Offset()
}

func (p *Pipeline) Close() error {
	return p.seg.Close()
}
