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
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/user_merge/model"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	query string
	args  []interface{}
}

// recordingQuerier records exec statements. Queries always fail.
type recordingQuerier struct {
	calls []execCall
	err   error
}

func (r *recordingQuerier) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	r.calls = append(r.calls, execCall{query: query, args: args})
	if r.err != nil {
		return nil, r.err
	}
	return driverResult(1), nil
}

func (r *recordingQuerier) QueryContext(_ context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	r.calls = append(r.calls, execCall{query: query, args: args})
	return nil, pkgerrors.New("connection lost")
}

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestAddMergeRecord(t *testing.T) {
	q := &recordingQuerier{}
	record := &model.MergeRecord{
		MergeId:       "0b8c8a36-7f3c-4d1e-9a52-1c3c9f1f2a10",
		MainUserId:    1,
		OtherUserId:   2,
		OtherUsername: "other",
		Initiator:     "system",
		MergedUser:    map[string]interface{}{"first_name": "Main"},
		MergedAt:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, NewMergeRecordStore().AddMergeRecord(context.Background(), q, record))
	require.Len(t, q.calls, 1)

	call := q.calls[0]
	assert.Contains(t, call.query, "INSERT INTO user_merges (merge_id, main_user_id, other_user_id")
	require.Len(t, call.args, 8)
	assert.Equal(t, record.MergeId, call.args[0])
	assert.Equal(t, pq.Array([]string{}), call.args[5])

	var mergedUser map[string]interface{}
	require.NoError(t, json.Unmarshal(call.args[6].([]byte), &mergedUser))
	assert.Equal(t, "Main", mergedUser["first_name"])
}

func TestAddMergeRecord_UnencodableMergedUser(t *testing.T) {
	q := &recordingQuerier{}
	record := &model.MergeRecord{MergeId: "m", MergedUser: map[string]interface{}{"bad": make(chan int)}}

	err := NewMergeRecordStore().AddMergeRecord(context.Background(), q, record)
	var serverError *errors.ServerError
	require.ErrorAs(t, err, &serverError)
	assert.Equal(t, errors.MARSHAL_JSON.Code, serverError.Code)
	assert.Empty(t, q.calls)
}

func TestAddMergeRecord_StoreFailure(t *testing.T) {
	cause := pkgerrors.New("foreign key violation")
	q := &recordingQuerier{err: cause}

	err := NewMergeRecordStore().AddMergeRecord(context.Background(), q, &model.MergeRecord{MergeId: "m"})
	var serverError *errors.ServerError
	require.ErrorAs(t, err, &serverError)
	assert.Equal(t, errors.ADD_MERGE_RECORD.Code, serverError.Code)
	assert.ErrorIs(t, err, cause)
}

func TestGetMergeRecords_QueryFailure(t *testing.T) {
	q := &recordingQuerier{}

	_, err := NewMergeRecordStore().GetMergeRecords(context.Background(), q, 1)
	var serverError *errors.ServerError
	require.ErrorAs(t, err, &serverError)
	assert.Equal(t, errors.EXECUTE_QUERY.Code, serverError.Code)
	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].query, "WHERE main_user_id = $1 ORDER BY merged_at, merge_id")
}
