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

package records

import (
	"context"
	"time"
)

// RecordSource is a lazy, finite, non-restartable sequence of Records.
// Offset is only meaningful once Scan has returned false: it is the byte
// position in the log file up to and including the last fully consumed entry.
type RecordSource interface {
	Scan() bool
	Record() Record
	Err() error
	Offset() int64
	Close() error
}

// PipelineFactory opens a RecordSource over the log file starting at the given
// byte offset.
type PipelineFactory func(logPath string, offset int64) (RecordSource, error)

// Repository persists Records and the ingestion offset, and answers aggregate
// queries over everything persisted so far.
type Repository interface {
	// RunIngestionCycle reads the last committed offset, runs the ingestion
	// pipeline from there and persists every produced record together with the
	// new offset in a single transaction. On any failure nothing is persisted
	// and the next cycle retries from the old offset.
	RunIngestionCycle(ctx context.Context, logPath string) (CycleResult, error)

	// The aggregate queries return ok=false when no matching rows exist.
	TotalMailCount(ctx context.Context) (int64, bool, error)
	LastErrorTimestamp(ctx context.Context) (time.Time, bool, error)
	LastCheckTimestamp(ctx context.Context) (time.Time, bool, error)

	RecordsSince(ctx context.Context, since time.Time) ([]RecordWithId, error)
}
