/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

package client

import (
	"context"
	"database/sql"
	"strings"

	"github.com/evap/user-merge-service/internal/system/log"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// ErrRollback makes RunInTx roll back the transaction without reporting a failure.
var ErrRollback = errors.New("rollback requested")

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// DBClientInterface defines the interface for database operations.
type DBClientInterface interface {
	ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, q Querier) error) error
	DB() *sql.DB
}

// DBClient is the implementation of DBClientInterface.
type DBClient struct {
	db *sql.DB
}

// NewDBClient creates a new instance of DBClient with the provided database connection.
func NewDBClient(db *sql.DB) DBClientInterface {

	return &DBClient{
		db: db,
	}
}

// ExecuteQuery executes a query on the pool and returns the rows as a slice of maps.
func (client *DBClient) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {

	return QueryRows(ctx, client.db, query, args...)
}

// RunInTx runs fn inside one transaction. The transaction commits only when fn returns nil.
func (client *DBClient) RunInTx(ctx context.Context, opts *sql.TxOptions,
	fn func(ctx context.Context, q Querier) error) error {

	logger := log.GetLogger()
	tx, err := client.db.BeginTx(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("Failed to roll back transaction", log.Error(rbErr))
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if errors.Is(err, ErrRollback) {
			return nil
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	committed = true
	return nil
}

// DB returns the underlying pool.
func (client *DBClient) DB() *sql.DB {
	return client.db
}

// QueryRows runs a query and returns every row as a map keyed by lower-cased column name.
func QueryRows(ctx context.Context, q Querier, query string, args ...interface{}) ([]map[string]interface{}, error) {

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		row := make([]interface{}, len(columns))
		rowPointers := make([]interface{}, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		result := map[string]interface{}{}
		for i, col := range columns {
			// Normalize column names to lowercase for consistency.
			result[strings.ToLower(col)] = row[i]
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// QueryInt64s runs a single column query and returns the values in row order.
func QueryInt64s(ctx context.Context, q Querier, query string, args ...interface{}) ([]int64, error) {

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []int64{}
	for rows.Next() {
		var value int64
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}
