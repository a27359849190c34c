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

package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pkgerrors "github.com/pkg/errors"
)

//go:embed scripts/*.sql
var migrationFiles embed.FS

const migrationsTable = "user_merge_schema_migrations"

// migrationLogger routes golang-migrate output into the service logger.
type migrationLogger struct {
	logger *log.Logger
}

func (l migrationLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l migrationLogger) Verbose() bool {
	return false
}

type MigrationService struct {
	// Version pins the schema to a specific version. Zero migrates to the latest.
	Version uint
}

func NewMigrationService(version uint) *MigrationService {
	return &MigrationService{Version: version}
}

// Migrate applies the embedded migrations on a dedicated connection of db.
func (ms *MigrationService) Migrate(ctx context.Context, db *sql.DB) error {

	logger := log.GetLogger()
	source, err := iofs.New(migrationFiles, "scripts")
	if err != nil {
		return ms.migrationError("Failed to open embedded migrations", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return ms.migrationError("Failed to reserve a connection for migrations", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		_ = conn.Close()
		return ms.migrationError("Failed to create migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = conn.Close()
		return ms.migrationError("Failed to create migrate instance", err)
	}
	m.Log = migrationLogger{logger: logger}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrate instance", log.Any("source_error", srcErr), log.Any("db_error", dbErr))
		}
	}()

	startTime := time.Now()
	if ms.Version != 0 {
		err = m.Migrate(ms.Version)
	} else {
		err = m.Up()
	}
	if pkgerrors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply")
		return nil
	}
	if err != nil {
		version, dirty, _ := m.Version()
		logger.Error("Failed to apply migrations", log.Any("version", version), log.Any("dirty", dirty), log.Error(err))
		return ms.migrationError("Failed to apply migrations", err)
	}

	version, _, _ := m.Version()
	logger.Info("Successfully applied migrations", log.Any("version", version),
		log.String("elapsed", time.Since(startTime).String()))
	logger.Audit(log.AuditEvent{
		InitiatorID:   log.InitiatorTypeSystem,
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      migrationsTable,
		TargetType:    log.TargetTypeDatabase,
		ActionID:      log.ActionMigrateMergeDatabase,
		Data:          map[string]interface{}{"version": version},
	})
	return nil
}

func (ms *MigrationService) migrationError(description string, cause error) error {
	log.GetLogger().Debug(description, log.Error(cause))
	return errors.NewServerError(errors.WithDescription(errors.MIGRATE_DATABASE, description), cause)
}
