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

package config

import "time"

type Config struct {
	// LogFile is the connector log file that will be ingested.
	LogFile string

	// PollInterval is the time between ingestion cycles. Writes to the log
	// file may trigger a cycle earlier.
	PollInterval time.Duration

	SQLite *SqliteConfig
	Web    *WebConfig
	Log    *LogConfig
}

type SqliteConfig struct {
	// DatabaseFile is the name of the file where the database will be stored.
	// The special name ':memory:' can be used to keep everything in memory.
	DatabaseFile string
}

type WebConfig struct {
	Enabled bool
	Address string
}

// LogConfig configures maildunk's own log output. If FileName is empty,
// logging goes to stdout only.
type LogConfig struct {
	Level      string
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}
