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

package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackbister/maildunk/internal/config"
	"github.com/jackbister/maildunk/internal/records"
	"github.com/jackbister/maildunk/internal/util"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Web interface {
	Serve() error
}

type webImpl struct {
	cfg  *config.Config
	repo records.Repository

	logger *zap.Logger
}

func NewWeb(cfg *config.Config, repo records.Repository, logger *zap.Logger) Web {
	return &webImpl{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
	}
}

func (wi *webImpl) Serve() error {
	s := http.Server{
		Addr:    wi.cfg.Web.Address,
		Handler: wi.handler(),
	}
	return s.ListenAndServe()
}

func (wi *webImpl) handler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(util.NewGinZapLogger(wi.logger), gin.Recovery())

	// The status page is plain text so that dumb pollers (curl in cron,
	// uptime checks) can scrape it without a JSON parser.
	r.GET("/", wi.status)
	r.GET("/status", wi.status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/v1/records", wi.listRecords)
	return r
}

func (wi *webImpl) status(c *gin.Context) {
	ctx := c.Request.Context()
	var sb strings.Builder

	total, ok, err := wi.repo.TotalMailCount(ctx)
	if err != nil {
		c.String(500, "error querying total mail count: %v\n", err)
		return
	}
	if ok {
		fmt.Fprintf(&sb, "total mail count: %v\n", total)
	} else {
		sb.WriteString("total mail count: no data\n")
	}

	lastCheck, ok, err := wi.repo.LastCheckTimestamp(ctx)
	if err != nil {
		c.String(500, "error querying last check timestamp: %v\n", err)
		return
	}
	if ok {
		fmt.Fprintf(&sb, "last check: %v\n", lastCheck.Format(time.RFC3339))
	} else {
		sb.WriteString("last check: no data\n")
	}

	lastError, ok, err := wi.repo.LastErrorTimestamp(ctx)
	if err != nil {
		c.String(500, "error querying last error timestamp: %v\n", err)
		return
	}
	if ok {
		fmt.Fprintf(&sb, "last error: %v\n", lastError.Format(time.RFC3339))
	} else {
		sb.WriteString("last error: no data\n")
	}

	c.String(200, sb.String())
}

func (wi *webImpl) listRecords(c *gin.Context) {
	var since time.Time
	if sinceParam := c.Query("since"); sinceParam != "" {
		t, err := dateparse.ParseAny(sinceParam)
		if err != nil {
			c.String(400, "could not parse since=%v as a time: %v\n", sinceParam, err)
			return
		}
		since = t
	}
	recs, err := wi.repo.RecordsSince(c.Request.Context(), since)
	if err != nil {
		c.String(500, "error querying records: %v\n", err)
		return
	}
	c.JSON(200, recs)
}
