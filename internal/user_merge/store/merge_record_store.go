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

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/evap/user-merge-service/internal/user_merge/model"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
)

const userMergesTable = "user_merges"

// MergeRecordStoreInterface keeps the merge history next to the merged profiles.
type MergeRecordStoreInterface interface {
	AddMergeRecord(ctx context.Context, q client.Querier, record *model.MergeRecord) error
	GetMergeRecords(ctx context.Context, q client.Querier, mainUserId int64) ([]model.MergeRecord, error)
}

type MergeRecordStore struct{}

func NewMergeRecordStore() MergeRecordStoreInterface {
	return &MergeRecordStore{}
}

// AddMergeRecord inserts the history entry of a merge.
func (s *MergeRecordStore) AddMergeRecord(ctx context.Context, q client.Querier, record *model.MergeRecord) error {

	logger := log.GetLogger()
	mergedUserJSON, err := json.Marshal(record.MergedUser)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to marshal merged user of merge %s", record.MergeId)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.WithDescription(errors.MARSHAL_JSON, errorMsg), err)
	}
	warnings := record.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(userMergesTable)
	ib.Cols("merge_id", "main_user_id", "other_user_id", "other_username", "initiator", "warnings",
		"merged_user", "merged_at")
	ib.Values(record.MergeId, record.MainUserId, record.OtherUserId, record.OtherUsername, record.Initiator,
		pq.Array(warnings), mergedUserJSON, record.MergedAt)

	query, args := ib.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		errorMsg := fmt.Sprintf("Failed to record merge of user profile %d into %d", record.OtherUserId,
			record.MainUserId)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.WithDescription(errors.ADD_MERGE_RECORD, errorMsg),
			pkgerrors.Wrap(err, errorMsg))
	}
	logger.Debug("Merge record added", log.String("merge_id", record.MergeId))
	return nil
}

// GetMergeRecords returns the merges the user profile survived, oldest first.
func (s *MergeRecordStore) GetMergeRecords(ctx context.Context, q client.Querier,
	mainUserId int64) ([]model.MergeRecord, error) {

	logger := log.GetLogger()
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("merge_id", "main_user_id", "other_user_id", "other_username", "initiator", "warnings",
		"merged_user", "merged_at")
	sb.From(userMergesTable)
	sb.Where(sb.Equal("main_user_id", mainUserId))
	sb.OrderBy("merged_at", "merge_id")

	query, args := sb.Build()
	errorMsg := fmt.Sprintf("Failed to fetch merge records of user profile %d", mainUserId)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.WithDescription(errors.EXECUTE_QUERY, errorMsg),
			pkgerrors.Wrap(err, errorMsg))
	}
	defer rows.Close()

	records := []model.MergeRecord{}
	for rows.Next() {
		var (
			record         model.MergeRecord
			mergedUserJSON []byte
		)
		if err := rows.Scan(&record.MergeId, &record.MainUserId, &record.OtherUserId, &record.OtherUsername,
			&record.Initiator, pq.Array(&record.Warnings), &mergedUserJSON, &record.MergedAt); err != nil {
			logger.Debug(errorMsg, log.Error(err))
			return nil, errors.NewServerError(errors.WithDescription(errors.EXECUTE_QUERY, errorMsg),
				pkgerrors.Wrap(err, errorMsg))
		}
		if err := json.Unmarshal(mergedUserJSON, &record.MergedUser); err != nil {
			logger.Debug(errorMsg, log.Error(err))
			return nil, errors.NewServerError(errors.WithDescription(errors.MARSHAL_JSON, errorMsg), err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewServerError(errors.WithDescription(errors.EXECUTE_QUERY, errorMsg),
			pkgerrors.Wrap(err, errorMsg))
	}
	return records, nil
}
