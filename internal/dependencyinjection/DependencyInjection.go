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

package dependencyinjection

import (
	"database/sql"
	"fmt"

	"github.com/jackbister/maildunk/internal/config"
	"github.com/jackbister/maildunk/internal/ingest"
	"github.com/jackbister/maildunk/internal/records"
	"github.com/jackbister/maildunk/internal/tasks"
	"github.com/jackbister/maildunk/internal/web"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

// InjectionContextFromConfig wires up everything needed to run maildunk.
func InjectionContextFromConfig(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	c := dig.New()
	providers := []any{
		func() *config.Config { return cfg },
		func() *zap.Logger { return logger },
		func(cfg *config.Config) (*sql.DB, error) {
			db, err := sql.Open("sqlite3", "file:"+cfg.SQLite.DatabaseFile+"?cache=shared&_journal_mode=WAL")
			if err != nil {
				return nil, fmt.Errorf("error opening database fileName=%s: %w", cfg.SQLite.DatabaseFile, err)
			}
			return db, nil
		},
		func(logger *zap.Logger) records.PipelineFactory {
			return func(logPath string, offset int64) (records.RecordSource, error) {
				return ingest.NewPipeline(logPath, offset, logger.Named("Pipeline"))
			}
		},
		records.SqliteRepository,
		tasks.NewIngestionScheduler,
		web.NewWeb,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, fmt.Errorf("error providing to dig container: %w", err)
		}
	}
	return c, nil
}
