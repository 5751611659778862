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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackbister/maildunk/internal/config"
	"github.com/jackbister/maildunk/internal/dependencyinjection"
	"github.com/jackbister/maildunk/internal/tasks"
	"github.com/jackbister/maildunk/internal/util"
	"github.com/jackbister/maildunk/internal/web"

	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

var versionString string // This must be set using -ldflags "-X main.versionString=<version>" when building for --version to work

var cfgFileFlag string
var databaseFileFlag string
var intervalFlag time.Duration
var printVersion bool
var webAddrFlag string

func main() {
	flag.StringVar(&cfgFileFlag, "config", "maildunk.json", "The name of the file containing the configuration for maildunk. If a config file exists, all other command line configuration will be ignored.")
	flag.StringVar(&databaseFileFlag, "dbfile", "maildunk.db", "The name of the file in which maildunk will store its data. If the name ':memory:' is used, no file will be created and everything will be stored in memory. If the file does not exist, a new file will be created.")
	flag.DurationVar(&intervalFlag, "interval", 1*time.Minute, "The time between ingestion cycles. Writes to the log file may trigger a cycle earlier.")
	flag.BoolVar(&printVersion, "version", false, "Print version info and quit.")
	flag.StringVar(&webAddrFlag, "webaddr", ":8080", "The address on which the status page will be exposed.")
	flag.Parse()

	if printVersion {
		if versionString == "" {
			fmt.Println("(unknown version)")
			return
		}
		fmt.Println(versionString)
		return
	}

	var cfg *config.Config
	cfgFile, err := os.Open(cfgFileFlag)
	if err == nil {
		cfg, err = config.FromJSON(cfgFile)
		cfgFile.Close()
		if err != nil {
			log.Fatalf("error reading configuration from file '%v': %v\n", cfgFileFlag, err)
		}
	} else {
		log.Printf("Could not open config file '%v', will use command line configuration\n", cfgFileFlag)
		cfg = config.Default()
		cfg.SQLite.DatabaseFile = databaseFileFlag
		cfg.PollInterval = intervalFlag
		cfg.Web.Address = webAddrFlag
		if flag.NArg() > 0 {
			cfg.LogFile = flag.Arg(0)
		}
	}
	if cfg.LogFile == "" {
		log.Fatalln("no connector log file configured. Set logFile in the config file or pass the file name as an argument.")
	}

	logger := util.NewLogger(cfg.Log)
	defer logger.Sync()

	c, err := dependencyinjection.InjectionContextFromConfig(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create dig container", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = c.Invoke(func(scheduler *tasks.IngestionScheduler, w web.Web) {
		if cfg.Web.Enabled {
			go func() {
				if err := w.Serve(); err != nil {
					logger.Fatal("web server failed", zap.Error(err))
				}
			}()
		}
		logger.Info("maildunk started",
			zap.String("fileName", cfg.LogFile),
			zap.Stringer("pollInterval", cfg.PollInterval))
		scheduler.Start(ctx)
	})
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	logger.Info("shutting down")
}
