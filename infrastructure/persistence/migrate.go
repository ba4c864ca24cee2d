package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"socialhub/infrastructure/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.GetLogger().Errorf(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.GetLogger().Infof(format, v...)
}

// Migrate applies the embedded PostgreSQL migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
