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

package config

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
}

type DataSourceConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// MaxOpenConns caps the shared pool. Zero keeps the database/sql default.
	MaxOpenConns int `yaml:"max_open_conns"`
}

type DatabaseConfig struct {
	AutoMigrate bool `yaml:"auto_migrate"`
	// MigrationVersion pins the schema to a version instead of migrating up.
	MigrationVersion uint `yaml:"migration_version"`
}

type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type MergeConfig struct {
	// TransactionTimeoutSeconds bounds one merge transaction, including lock waits.
	TransactionTimeoutSeconds int `yaml:"transaction_timeout_seconds"`
	// WaitForLocks queues a merge behind a concurrent merge of the same profile instead of rejecting it.
	WaitForLocks bool          `yaml:"wait_for_locks"`
	Archive      ArchiveConfig `yaml:"archive"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	DataSource DataSourceConfig `yaml:"datasource"`
	Database   DatabaseConfig   `yaml:"database"`
	Merge      MergeConfig      `yaml:"merge"`
}
