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
	"github.com/evap/user-merge-service/internal/health_check/service"
	dbProvider "github.com/evap/user-merge-service/internal/system/database/provider"
)

// HealthCheckProviderInterface defines the provider interface.
type HealthCheckProviderInterface interface {
	GetHealthCheckService() (service.HealthCheckServiceInterface, error)
}

// HealthCheckProvider is the default implementation.
type HealthCheckProvider struct{}

// NewHealthCheckProvider returns a new instance.
func NewHealthCheckProvider() HealthCheckProviderInterface {
	return &HealthCheckProvider{}
}

// GetHealthCheckService returns a health check service on the shared database pool.
func (h *HealthCheckProvider) GetHealthCheckService() (service.HealthCheckServiceInterface, error) {
	dbClient, err := dbProvider.NewDBProvider().GetDBClient()
	if err != nil {
		return nil, err
	}
	return service.NewHealthCheckService(dbClient), nil
}
