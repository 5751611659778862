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
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const offsetKey = "offset"

type sqliteRepository struct {
	db          *sql.DB
	newPipeline PipelineFactory

	logger *zap.Logger
}

// SqliteRepository creates a Repository backed by the given database handle.
// Table creation is idempotent so it is safe to call against an existing
// database.
func SqliteRepository(db *sql.DB, newPipeline PipelineFactory, logger *zap.Logger) (Repository, error) {
	_, err := db.Exec("CREATE TABLE IF NOT EXISTS Records (id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, timestamp DATETIME NOT NULL, error BOOLEAN NOT NULL, mail_count INTEGER NOT NULL, message TEXT NOT NULL);")
	if err != nil {
		return nil, fmt.Errorf("error creating Records table: %w", err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS IX_Records_Timestamp ON Records(timestamp);")
	if err != nil {
		return nil, fmt.Errorf("error creating Records timestamp index: %w", err)
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS IngestionState (key TEXT NOT NULL PRIMARY KEY, value BIGINT NOT NULL);")
	if err != nil {
		return nil, fmt.Errorf("error creating IngestionState table: %w", err)
	}
	return &sqliteRepository{
		db:          db,
		newPipeline: newPipeline,
		logger:      logger,
	}, nil
}

func (repo *sqliteRepository) RunIngestionCycle(ctx context.Context, logPath string) (CycleResult, error) {
	startTime := time.Now()
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return CycleResult{}, fmt.Errorf("error starting transaction for ingestion cycle: %w", err)
	}

	offset, err := readOffset(ctx, tx)
	if err != nil {
		tx.Rollback()
		return CycleResult{}, err
	}

	pipe, err := repo.newPipeline(logPath, offset)
	if err != nil {
		tx.Rollback()
		return CycleResult{}, fmt.Errorf("error opening ingestion pipeline for fileName=%s at offset=%v: %w", logPath, offset, err)
	}
	defer pipe.Close()

	inserted := 0
	for pipe.Scan() {
		rec := pipe.Record()
		_, err := tx.ExecContext(ctx, "INSERT INTO Records(timestamp, error, mail_count, message) VALUES(?, ?, ?, ?);",
			rec.Timestamp, rec.IsError, rec.MailCount, rec.Raw)
		if err != nil {
			tx.Rollback()
			return CycleResult{}, fmt.Errorf("error inserting record from fileName=%s: %w", logPath, err)
		}
		inserted++
	}
	if err := pipe.Err(); err != nil {
		tx.Rollback()
		return CycleResult{}, fmt.Errorf("error reading entries from fileName=%s: %w", logPath, err)
	}

	// The offset must land in the same transaction as the rows it accounts
	// for. If it didn't, a crash between the two writes would duplicate or
	// drop entries on the next run.
	newOffset := pipe.Offset()
	_, err = tx.ExecContext(ctx, "UPDATE IngestionState SET value = ? WHERE key = ?;", newOffset, offsetKey)
	if err != nil {
		tx.Rollback()
		return CycleResult{}, fmt.Errorf("error updating ingestion offset to offset=%v: %w", newOffset, err)
	}
	if err := tx.Commit(); err != nil {
		return CycleResult{}, fmt.Errorf("error committing ingestion cycle for fileName=%s: %w", logPath, err)
	}
	if inserted > 0 {
		repo.logger.Info("ingestion cycle committed",
			zap.String("fileName", logPath),
			zap.Int("recordsInserted", inserted),
			zap.Int64("newOffset", newOffset),
			zap.Stringer("duration", time.Since(startTime)))
	}
	return CycleResult{
		RecordsInserted: inserted,
		NewOffset:       newOffset,
	}, nil
}

// readOffset returns the last committed offset, seeding a zero row on the
// first ever run.
func readOffset(ctx context.Context, tx *sql.Tx) (int64, error) {
	var offset int64
	err := tx.QueryRowContext(ctx, "SELECT value FROM IngestionState WHERE key = ?;", offsetKey).Scan(&offset)
	if err == sql.ErrNoRows {
		_, err = tx.ExecContext(ctx, "INSERT INTO IngestionState(key, value) VALUES(?, 0);", offsetKey)
		if err != nil {
			return 0, fmt.Errorf("error seeding ingestion offset row: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading ingestion offset: %w", err)
	}
	return offset, nil
}

func (repo *sqliteRepository) TotalMailCount(ctx context.Context) (int64, bool, error) {
	var sum sql.NullInt64
	err := repo.db.QueryRowContext(ctx, "SELECT SUM(mail_count) FROM Records;").Scan(&sum)
	if err != nil {
		return 0, false, fmt.Errorf("error querying total mail count: %w", err)
	}
	if !sum.Valid {
		return 0, false, nil
	}
	return sum.Int64, true, nil
}

func (repo *sqliteRepository) LastErrorTimestamp(ctx context.Context) (time.Time, bool, error) {
	return repo.lastTimestamp(ctx, "SELECT timestamp FROM Records WHERE error ORDER BY timestamp DESC LIMIT 1;")
}

func (repo *sqliteRepository) LastCheckTimestamp(ctx context.Context) (time.Time, bool, error) {
	return repo.lastTimestamp(ctx, "SELECT timestamp FROM Records ORDER BY timestamp DESC LIMIT 1;")
}

func (repo *sqliteRepository) lastTimestamp(ctx context.Context, query string) (time.Time, bool, error) {
	var t time.Time
	err := repo.db.QueryRowContext(ctx, query).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("error querying last timestamp: %w", err)
	}
	return t, true, nil
}

func (repo *sqliteRepository) RecordsSince(ctx context.Context, since time.Time) ([]RecordWithId, error) {
	rows, err := repo.db.QueryContext(ctx, "SELECT id, timestamp, error, mail_count, message FROM Records WHERE timestamp >= ? ORDER BY timestamp, id;", since)
	if err != nil {
		return nil, fmt.Errorf("error querying records since=%v: %w", since, err)
	}
	defer rows.Close()
	ret := []RecordWithId{}
	for rows.Next() {
		var rec RecordWithId
		if err := rows.Scan(&rec.Id, &rec.Timestamp, &rec.IsError, &rec.MailCount, &rec.Raw); err != nil {
			return nil, fmt.Errorf("error scanning record row: %w", err)
		}
		ret = append(ret, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return ret, nil
}
