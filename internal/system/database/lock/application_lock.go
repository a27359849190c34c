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

package lock

import (
	"context"
	"fmt"
	"hash/fnv" // For hashing string keys to integers

	"github.com/evap/user-merge-service/internal/system/constants"
	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/system/database/scripts"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
)

// TransactionLock is a lock scoped to the surrounding transaction. It is released on commit or rollback.
type TransactionLock interface {
	TryAcquire(ctx context.Context, q client.Querier, key string) (bool, error)
	Acquire(ctx context.Context, q client.Querier, key string) error
}

// PostgresLock implements TransactionLock using PostgreSQL transaction level advisory locks.
type PostgresLock struct{}

func NewPostgresLock() *PostgresLock {
	return &PostgresLock{}
}

// UserProfileLockKey is the lock key guarding one user profile during a merge.
func UserProfileLockKey(userProfileId int64) string {
	return fmt.Sprintf("%s%d", constants.AdvisoryLockKeyPrefix, userProfileId)
}

// PostgreSQL advisory locks use bigint or two integers. We'll use a single bigint.
func (l *PostgresLock) generateLockKey(key string) (int64, error) {

	logger := log.GetLogger()
	h := fnv.New64a()
	_, err := h.Write([]byte(key))
	if err != nil {
		errorMsg := fmt.Sprintf("failed to hash lock key '%s'", key)
		logger.Debug(errorMsg, log.Error(err))
		serverError := errors.NewServerError(errors.WithDescription(errors.LOCK_KEY_GEN, errorMsg), err)
		return 0, serverError
	}
	return int64(h.Sum64()), nil
}

// TryAcquire takes the lock if it is free and reports whether it did. It never waits.
func (l *PostgresLock) TryAcquire(ctx context.Context, q client.Querier, key string) (bool, error) {

	logger := log.GetLogger()
	lockID, err := l.generateLockKey(key)
	if err != nil {
		return false, err
	}
	logger.Debug("Trying advisory lock", log.String("key", key), log.Int64("lock_id", lockID))

	results, err := client.QueryRows(ctx, q, scripts.TryAdvisoryXactLock[constants.DriverName], lockID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to execute pg_try_advisory_xact_lock for key %s", key)
		logger.Error(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.WithDescription(errors.LOCK_ACQUIRE, errorMsg), err)
	}

	if len(results) == 0 {
		errorMsg := fmt.Sprintf("pg_try_advisory_xact_lock returned no results for lock Id %d", lockID)
		logger.Error(errorMsg)
		return false, errors.NewServerError(errors.WithDescription(errors.LOCK_ACQUIRE, errorMsg), nil)
	}
	acquired, ok := results[0]["acquired"].(bool)
	if !ok {
		errorMsg := fmt.Sprintf("pg_try_advisory_xact_lock returned an invalid field for lock Id %d", lockID)
		logger.Error(errorMsg)
		return false, errors.NewServerError(errors.WithDescription(errors.LOCK_ACQUIRE, errorMsg), nil)
	}
	return acquired, nil
}

// Acquire waits for the lock. The wait is bounded by the context deadline.
func (l *PostgresLock) Acquire(ctx context.Context, q client.Querier, key string) error {

	lockID, err := l.generateLockKey(key)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, scripts.AdvisoryXactLock[constants.DriverName], lockID); err != nil {
		errorMsg := fmt.Sprintf("Failed to execute pg_advisory_xact_lock for key %s", key)
		log.GetLogger().Error(errorMsg, log.Error(err))
		return errors.NewServerError(errors.WithDescription(errors.LOCK_ACQUIRE, errorMsg), err)
	}
	return nil
}
