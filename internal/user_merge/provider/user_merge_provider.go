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
	"context"
	"sync"
	"time"

	"github.com/evap/user-merge-service/internal/system/config"
	"github.com/evap/user-merge-service/internal/system/database/lock"
	dbProvider "github.com/evap/user-merge-service/internal/system/database/provider"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/evap/user-merge-service/internal/user_merge/service"
	"github.com/evap/user-merge-service/internal/user_merge/store"
	profileStore "github.com/evap/user-merge-service/internal/user_profile/store"
)

var (
	archive   store.MergeArchiveInterface
	archiveMu sync.Mutex
)

// UserMergeProviderInterface defines the interface for the user merge provider.
type UserMergeProviderInterface interface {
	GetUserMergeService(ctx context.Context) (service.UserMergeServiceInterface, error)
	Close(ctx context.Context) error
}

// UserMergeProvider wires the user merge service from the runtime configuration.
type UserMergeProvider struct {
	dbProvider dbProvider.DBProviderInterface
}

// NewUserMergeProvider creates a new instance of UserMergeProvider.
func NewUserMergeProvider() UserMergeProviderInterface {

	return &UserMergeProvider{dbProvider: dbProvider.NewDBProvider()}
}

// GetUserMergeService returns a service on the shared database pool.
func (p *UserMergeProvider) GetUserMergeService(ctx context.Context) (service.UserMergeServiceInterface, error) {

	logger := log.GetLogger()
	dbClient, err := p.dbProvider.GetDBClient()
	if err != nil {
		errorMsg := "Failed to get database client for merging user profiles"
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.WithDescription(errors.DB_CLIENT_INIT, errorMsg), err)
	}

	mergeConfig := config.GetUMSRuntime().Config.Merge
	mergeArchive, err := getArchive(ctx, mergeConfig.Archive)
	if err != nil {
		return nil, err
	}

	txTimeout := time.Duration(mergeConfig.TransactionTimeoutSeconds) * time.Second
	return service.NewUserMergeService(dbClient, profileStore.NewUserProfileStore(), store.NewMergeRecordStore(),
		lock.NewPostgresLock(), mergeArchive, txTimeout, mergeConfig.WaitForLocks), nil
}

// Close disconnects the merge archive if one was opened.
func (p *UserMergeProvider) Close(ctx context.Context) error {

	archiveMu.Lock()
	defer archiveMu.Unlock()
	if archive == nil {
		return nil
	}
	err := archive.Close(ctx)
	archive = nil
	return err
}

func getArchive(ctx context.Context, archiveConfig config.ArchiveConfig) (store.MergeArchiveInterface, error) {

	if !archiveConfig.Enabled {
		return nil, nil
	}
	archiveMu.Lock()
	defer archiveMu.Unlock()
	if archive != nil {
		return archive, nil
	}
	mongoArchive, err := store.ConnectMongoMergeArchive(ctx, archiveConfig.URI, archiveConfig.Database,
		archiveConfig.Collection)
	if err != nil {
		return nil, err
	}
	archive = mongoArchive
	return archive, nil
}
