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

package setup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evap/user-merge-service/internal/system/database/migrations"
	"github.com/evap/user-merge-service/internal/system/log"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestPostgres struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
}

// SetupTestPostgres starts a Postgres container and migrates it to the latest schema.
func SetupTestPostgres(ctx context.Context) (*TestPostgres, error) {
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	if err := migrations.NewMigrationService(0).Migrate(ctx, db); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	log.GetLogger().Info("Postgres container started", log.String("connection", connStr))
	return &TestPostgres{
		Container: container,
		DB:        db,
	}, nil
}

// Truncate empties every table of the schema between tests.
func (p *TestPostgres) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `TRUNCATE user_merges, grade_documents, reward_point_redemptions, reward_point_grantings,
		contributions, course_voters, course_participants, courses, user_profile_cc_users,
		user_profile_delegates, user_profile_groups, user_profiles, auth_groups RESTART IDENTITY CASCADE`)
	return err
}

func (p *TestPostgres) Terminate(ctx context.Context) {
	_ = p.DB.Close()
	_ = p.Container.Terminate(ctx)
}
