/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package database provides database connection management.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	// mysql driver registration
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// DB holds the XS2A datasource. Type selects the statement variant of each DBQuery.
type DB struct {
	*sqlx.DB
	Type string
}

// driverName resolves the configured datasource type. Only MySQL is linked in; an empty type
// means MySQL.
func driverName(dbType string) (string, error) {
	switch strings.ToLower(dbType) {
	case "", "mysql":
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported xs2a datasource type %q", dbType)
}

// Initialize opens the connection pool and verifies it with a ping.
func Initialize(cfg *config.DatabaseConfig) (*DB, error) {
	driver, err := driverName(cfg.Type)
	if err != nil {
		return nil, err
	}

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Database"))
	logger.Info("Connecting to database...",
		log.String("hostname", cfg.Hostname),
		log.Int("port", cfg.Port),
		log.String("database", cfg.Database),
		log.String("type", driver))

	db, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to database")

	return &DB{DB: db, Type: driver}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.DB != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Database")).Info("Closing database connection...")
		return db.DB.Close()
	}
	return nil
}

// HealthCheck pings the datasource. Backs the /health endpoint through the provider.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
