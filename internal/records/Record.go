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

import "time"

// Record is one structured entry extracted from the connector log. Records are
// transient - they are constructed by the ingestion pipeline and written to the
// repository immediately.
type Record struct {
	Timestamp time.Time
	IsError   bool
	MailCount int
	Raw       string
}

// RecordWithId is a Record as read back from the repository.
type RecordWithId struct {
	Id        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"isError"`
	MailCount int       `json:"mailCount"`
	Raw       string    `json:"raw"`
}

// CycleResult describes one completed ingestion cycle.
type CycleResult struct {
	RecordsInserted int
	NewOffset       int64
}
