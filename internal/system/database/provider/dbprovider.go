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

// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/wso2/xs2a-sca-engine/internal/system/database"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetXs2aDBClient() (DBClientInterface, error)
	HealthCheck(ctx context.Context) error
}

// DBProviderCloser is a separate interface for closing the provider.
// Only the lifecycle manager should use this interface.
type DBProviderCloser interface {
	Close() error
}

type dbProvider struct {
	client DBClientInterface
	mu     sync.RWMutex
	db     *database.DB
}

var (
	instance *dbProvider
	once     sync.Once
)

// InitDBProvider initializes the singleton instance of DBProvider with the database connection.
func InitDBProvider(db *database.DB) {
	once.Do(func() {
		instance = &dbProvider{db: db}
		instance.initializeClient()
	})
}

// GetDBProvider returns the instance of DBProvider.
func GetDBProvider() DBProviderInterface {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetDBProviderCloser returns the DBProvider with closing capability.
func GetDBProviderCloser() DBProviderCloser {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetXs2aDBClient returns the client of the XS2A datasource.
func (d *dbProvider) GetXs2aDBClient() (DBClientInterface, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, fmt.Errorf("xs2a database client is closed")
	}
	return d.client, nil
}

// HealthCheck pings the XS2A datasource. A closed provider is unhealthy.
func (d *dbProvider) HealthCheck(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil || d.db == nil {
		return fmt.Errorf("xs2a database client is closed")
	}
	return d.db.HealthCheck(ctx)
}

func (d *dbProvider) initializeClient() {
	d.mu.Lock()
	defer d.mu.Unlock()

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))

	if d.db == nil {
		logger.Fatal("Database connection is nil")
		return
	}

	d.client = NewDBClient(d.db.DB, d.db.Type)
	logger.Debug("XS2A DB client initialized")
}

// Close drops the client and closes the pool. Called by the lifecycle manager during shutdown.
func (d *dbProvider) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider")).Debug("Closing database connections")
	d.client = nil
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
