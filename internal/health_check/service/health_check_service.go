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

package service

import (
	"context"
	"fmt"

	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
)

const schemaVersionQuery = `SELECT version, dirty FROM user_merge_schema_migrations LIMIT 1`

// HealthCheckServiceInterface defines the service interface.
type HealthCheckServiceInterface interface {
	CheckReadiness(ctx context.Context) error
}

// HealthCheckService is the default implementation.
type HealthCheckService struct {
	dbClient client.DBClientInterface
}

// NewHealthCheckService returns a new instance.
func NewHealthCheckService(dbClient client.DBClientInterface) HealthCheckServiceInterface {
	return &HealthCheckService{dbClient: dbClient}
}

// CheckReadiness verifies that the database answers and that its schema is migrated and clean.
func (h *HealthCheckService) CheckReadiness(ctx context.Context) error {
	logger := log.GetLogger()

	// Perform a lightweight query to ensure DB connectivity.
	if _, err := h.dbClient.ExecuteQuery(ctx, "SELECT 1"); err != nil {
		errorMsg := "Database connectivity check failed"
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.WithDescription(errors.DB_CLIENT_INIT, errorMsg), err)
	}

	rows, err := h.dbClient.ExecuteQuery(ctx, schemaVersionQuery)
	if err != nil {
		errorMsg := "Database schema is not migrated"
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.WithDescription(errors.MIGRATE_DATABASE, errorMsg), err)
	}
	if len(rows) == 0 {
		return errors.NewServerError(errors.WithDescription(errors.MIGRATE_DATABASE,
			"Database schema has no applied migration"), nil)
	}
	if dirty, _ := rows[0]["dirty"].(bool); dirty {
		return errors.NewServerError(errors.WithDescription(errors.MIGRATE_DATABASE,
			fmt.Sprintf("Database schema version %v is dirty", rows[0]["version"])), nil)
	}
	logger.Debug("Readiness check passed", log.Any("schema_version", rows[0]["version"]))
	return nil
}
