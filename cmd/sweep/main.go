// Copyright 2026 The Logward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sweep runs a one-shot orphaned-grant collection: grants whose
// user-typed grantee no longer exists in the principal directory are
// removed. The server performs the same sweep on principal-deleted events;
// this binary exists for operators healing a store after missed events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/logward/logward/internal/audit"
	"github.com/logward/logward/internal/config"
	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grant"
	"github.com/logward/logward/internal/observability/logger"
	"github.com/logward/logward/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	bus := events.NewBus()
	collector := grant.NewCollector(
		postgres.NewGrantRepository(db),
		postgres.NewUserRepository(db),
		bus,
		audit.NewSlogLogger(),
		nil,
	)

	removed, err := collector.Sweep(ctx)
	if err != nil {
		slog.Error("sweep failed", logger.Error(err))
		os.Exit(1)
	}
	bus.Wait()

	slog.Info("sweep completed", logger.GrantCount(removed))
}
