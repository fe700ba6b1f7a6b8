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

package provider

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wso2/xs2a-sca-engine/internal/system/database/model"
)

// DBClientInterface runs named queries against one datasource.
type DBClientInterface interface {
	Query(ctx context.Context, query model.DBQuery, args ...interface{}) ([]map[string]interface{}, error)
	Execute(ctx context.Context, query model.DBQuery, args ...interface{}) (int64, error)
	BeginTx() (model.TxInterface, error)
}

// DBClient is the sqlx-backed DBClientInterface.
type DBClient struct {
	db     *sqlx.DB
	dbType string
}

var _ DBClientInterface = (*DBClient)(nil)

// NewDBClient wraps an open sqlx pool.
func NewDBClient(db *sqlx.DB, dbType string) *DBClient {
	return &DBClient{db: db, dbType: dbType}
}

// Query returns every row as a column-name keyed map. Byte slices are converted to strings.
func (c *DBClient) Query(ctx context.Context, query model.DBQuery, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := c.db.QueryxContext(ctx, query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", query.GetID(), err)
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("query %s scan failed: %w", query.GetID(), err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s iteration failed: %w", query.GetID(), err)
	}
	return results, nil
}

// Execute runs a statement outside a transaction and returns the affected row count.
func (c *DBClient) Execute(ctx context.Context, query model.DBQuery, args ...interface{}) (int64, error) {
	result, err := c.db.ExecContext(ctx, query.GetQuery(c.dbType), args...)
	if err != nil {
		return 0, fmt.Errorf("statement %s failed: %w", query.GetID(), err)
	}
	return result.RowsAffected()
}

// BeginTx opens a transaction.
func (c *DBClient) BeginTx() (model.TxInterface, error) {
	tx, err := c.db.Beginx()
	if err != nil {
		return nil, err
	}
	return tx, nil
}
