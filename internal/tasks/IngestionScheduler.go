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

package tasks

import (
	"context"
	"path/filepath"
	"time"

	"github.com/jackbister/maildunk/internal/config"
	"github.com/jackbister/maildunk/internal/records"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// minimum time between a committed cycle and an fsnotify-triggered one, so a
// chatty writer doesn't make us spin.
const wakeupQuietPeriod = 1 * time.Second

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildunk_ingestion_cycles_total",
		Help: "Total number of ingestion cycles that have been run",
	})
	cycleFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildunk_ingestion_cycle_failures_total",
		Help: "Total number of ingestion cycles that failed and were rolled back",
	})
	recordsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildunk_records_ingested_total",
		Help: "Total number of records inserted into the database",
	})
	ingestionOffsetBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maildunk_ingestion_offset_bytes",
		Help: "The committed byte offset in the connector log file",
	})
)

// IngestionScheduler runs ingestion cycles against the connector log, one at a
// time. A cycle runs every PollInterval, or earlier when the log file is
// written to. All cycles run on the goroutine that called Start, so no two
// cycles ever overlap on the same storage handle.
type IngestionScheduler struct {
	repo     records.Repository
	logPath  string
	interval time.Duration

	logger *zap.Logger
}

func NewIngestionScheduler(cfg *config.Config, repo records.Repository, logger *zap.Logger) *IngestionScheduler {
	return &IngestionScheduler{
		repo:     repo,
		logPath:  cfg.LogFile,
		interval: cfg.PollInterval,
		logger:   logger,
	}
}

// Start blocks and runs ingestion cycles until ctx is cancelled. Failed cycles
// are logged and retried on the next tick; the scheduler itself only stops on
// cancellation.
func (s *IngestionScheduler) Start(ctx context.Context) {
	var watchEvents chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("could not create file watcher, will rely on polling only",
			zap.Error(err))
	} else {
		defer watcher.Close()
		// Watch the directory rather than the file so rotations and
		// recreations are picked up.
		dir := filepath.Dir(s.logPath)
		if err := watcher.Add(dir); err != nil {
			s.logger.Warn("could not watch log directory, will rely on polling only",
				zap.String("dir", dir),
				zap.Error(err))
		} else {
			watchEvents = watcher.Events
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	lastRun := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case evt := <-watchEvents:
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if matched, _ := filepath.Match(s.logPath, evt.Name); !matched && evt.Name != s.logPath {
				continue
			}
			if time.Since(lastRun) < wakeupQuietPeriod {
				continue
			}
		}
		s.runOnce(ctx)
		lastRun = time.Now()
	}
}

func (s *IngestionScheduler) runOnce(ctx context.Context) {
	cycleId := uuid.NewString()
	logger := s.logger.With(zap.String("cycleId", cycleId))

	cyclesTotal.Inc()
	res, err := s.repo.RunIngestionCycle(ctx, s.logPath)
	if err != nil {
		cycleFailuresTotal.Inc()
		logger.Error("ingestion cycle failed, offset is unchanged and the cycle will be retried",
			zap.String("fileName", s.logPath),
			zap.Error(err))
		return
	}
	recordsIngestedTotal.Add(float64(res.RecordsInserted))
	ingestionOffsetBytes.Set(float64(res.NewOffset))
	if res.RecordsInserted == 0 {
		logger.Debug("ingestion cycle found no new entries",
			zap.String("fileName", s.logPath),
			zap.Int64("offset", res.NewOffset))
	}
}
