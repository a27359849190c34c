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

package provider

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/evap/user-merge-service/internal/system/config"
	"github.com/evap/user-merge-service/internal/system/constants"
	"github.com/evap/user-merge-service/internal/system/database/client"
)

var (
	sharedDB *sql.DB
	dbMu     sync.Mutex
)

// DBConfig represents the local database configuration.
type DBConfig struct {
	dsn          string
	driverName   string
	maxOpenConns int
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
}

// DBProvider is the implementation of DBProviderInterface.
type DBProvider struct{}

// NewDBProvider creates a new instance of DBProvider.
func NewDBProvider() DBProviderInterface {

	return &DBProvider{}
}

// GetDBClient returns a client on the shared pool, opening it from the runtime configuration on first use.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {

	dbMu.Lock()
	defer dbMu.Unlock()

	if sharedDB != nil {
		return client.NewDBClient(sharedDB), nil
	}

	runtimeConfig := config.GetUMSRuntime().Config
	dbConfig := getDBConfig(runtimeConfig)

	db, err := sql.Open(dbConfig.driverName, dbConfig.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if dbConfig.maxOpenConns > 0 {
		db.SetMaxOpenConns(dbConfig.maxOpenConns)
	}

	// Test the database connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sharedDB = db
	return client.NewDBClient(sharedDB), nil
}

// SetTestDB installs an already opened pool, e.g. a testcontainer database.
func SetTestDB(db *sql.DB) {

	dbMu.Lock()
	defer dbMu.Unlock()
	sharedDB = db
}

// Close closes the shared pool if one was opened.
func Close() error {

	dbMu.Lock()
	defer dbMu.Unlock()
	if sharedDB == nil {
		return nil
	}
	err := sharedDB.Close()
	sharedDB = nil
	return err
}

// getDBConfig returns the database configuration based on the provided data source.
func getDBConfig(dataSource config.Config) DBConfig {

	var dbConfig DBConfig

	dbConfig.driverName = constants.DriverName
	dbConfig.dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dataSource.DataSource.Hostname, dataSource.DataSource.Port, dataSource.DataSource.Username, dataSource.DataSource.Password,
		dataSource.DataSource.Name, dataSource.DataSource.SSLMode)
	dbConfig.maxOpenConns = dataSource.DataSource.MaxOpenConns

	return dbConfig
}
