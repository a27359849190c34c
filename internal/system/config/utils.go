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

import (
	"os"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	defaultLogLevel                  = "INFO"
	defaultSSLMode                   = "disable"
	defaultPort                      = 5432
	defaultTransactionTimeoutSeconds = 30
	defaultArchiveCollection         = "user_merges"
)

// LoadConfig reads the deployment file under umsHome, expanding ${ENV} references.
func LoadConfig(umsHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(umsHome, filePath))
	if err != nil {
		return nil, err
	}
	return ParseConfig(file)
}

// ParseConfig expands environment references in raw YAML and fills defaults.
func ParseConfig(raw []byte) (*Config, error) {

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {

	if cfg.Log.LogLevel == "" {
		cfg.Log.LogLevel = defaultLogLevel
	}
	if cfg.DataSource.SSLMode == "" {
		cfg.DataSource.SSLMode = defaultSSLMode
	}
	if cfg.DataSource.Port == 0 {
		cfg.DataSource.Port = defaultPort
	}
	if cfg.Merge.TransactionTimeoutSeconds <= 0 {
		cfg.Merge.TransactionTimeoutSeconds = defaultTransactionTimeoutSeconds
	}
	if cfg.Merge.Archive.Collection == "" {
		cfg.Merge.Archive.Collection = defaultArchiveCollection
	}
}

// OverrideUMSRuntime replaces the runtime configuration. Used by tests.
func OverrideUMSRuntime(conf Config) {
	runtimeConfig = &UMSRuntime{
		Config: conf,
	}
}
