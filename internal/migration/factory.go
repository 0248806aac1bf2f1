package migration

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/internal/database"
)

// NewMigratorFromDatabaseConfig builds a migrator for the same database the SQL snapshot store uses
func NewMigratorFromDatabaseConfig(dbCfg database.Config, logger *zap.Logger) (*DefaultMigrator, error) {
	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}
	return NewMigrator(&Config{
		DatabaseType: dbType,
		DatabaseURL:  dbCfg.DSN,
		TableName:    "schema_migrations",
	}, logger)
}

// NewMigratorFromURL creates a new migrator from a database URL
func NewMigratorFromURL(dbType, dbURL string, logger *zap.Logger) (*DefaultMigrator, error) {
	dt, err := ParseDatabaseType(dbType)
	if err != nil {
		return nil, err
	}
	return NewMigrator(&Config{
		DatabaseType: dt,
		DatabaseURL:  dbURL,
		TableName:    "schema_migrations",
	}, logger)
}
