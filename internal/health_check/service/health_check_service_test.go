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
	"database/sql"
	"os"
	"testing"

	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

// stubDBClient answers queries from a map keyed by query text.
type stubDBClient struct {
	rows map[string][]map[string]interface{}
	errs map[string]error
}

func (s *stubDBClient) ExecuteQuery(_ context.Context, query string, _ ...interface{}) ([]map[string]interface{}, error) {
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.rows[query], nil
}

func (s *stubDBClient) RunInTx(context.Context, *sql.TxOptions, func(context.Context, client.Querier) error) error {
	return nil
}

func (s *stubDBClient) DB() *sql.DB {
	return nil
}

func TestCheckReadiness(t *testing.T) {
	cases := map[string]struct {
		client   *stubDBClient
		wantCode string
	}{
		"ready": {
			client: &stubDBClient{rows: map[string][]map[string]interface{}{
				schemaVersionQuery: {{"version": int64(2), "dirty": false}},
			}},
		},
		"database down": {
			client:   &stubDBClient{errs: map[string]error{"SELECT 1": pkgerrors.New("connection refused")}},
			wantCode: errors.DB_CLIENT_INIT.Code,
		},
		"not migrated": {
			client:   &stubDBClient{errs: map[string]error{schemaVersionQuery: pkgerrors.New("relation does not exist")}},
			wantCode: errors.MIGRATE_DATABASE.Code,
		},
		"no migration applied": {
			client:   &stubDBClient{},
			wantCode: errors.MIGRATE_DATABASE.Code,
		},
		"dirty schema": {
			client: &stubDBClient{rows: map[string][]map[string]interface{}{
				schemaVersionQuery: {{"version": int64(2), "dirty": true}},
			}},
			wantCode: errors.MIGRATE_DATABASE.Code,
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewHealthCheckService(c.client).CheckReadiness(context.Background())
			if c.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var serverError *errors.ServerError
			require.ErrorAs(t, err, &serverError)
			assert.Equal(t, c.wantCode, serverError.Code)
		})
	}
}
