package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchemaMSSQL creates the account tables for SQL Server if they do not exist.
func EnsureSchemaMSSQL(ctx context.Context, db *sql.DB) error {
	ddl := []struct {
		table string
		stmt  string
	}{
		{"social_accounts", `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_accounts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_accounts] (
        id NVARCHAR(36) NOT NULL PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        platform_user_id NVARCHAR(255) NOT NULL,
        username NVARCHAR(255) NOT NULL DEFAULT '',
        display_name NVARCHAR(255) NOT NULL DEFAULT '',
        follower_count BIGINT NOT NULL DEFAULT 0,
        is_business_account BIT NOT NULL DEFAULT 0,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        token_expires_at DATETIME2 NULL,
        scopes NVARCHAR(MAX) NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_accounts_user_platform ON dbo.[social_accounts](user_id, platform);
END`},
		{"platform_configs", `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.platform_configs') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[platform_configs] (
        id NVARCHAR(36) NOT NULL PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        default_post_format NVARCHAR(64) NOT NULL,
        optimal_posting_times NVARCHAR(MAX) NOT NULL,
        hashtag_strategy NVARCHAR(64) NOT NULL,
        image_quality NVARCHAR(32) NOT NULL,
        auto_publish BIT NOT NULL DEFAULT 0,
        settings NVARCHAR(MAX) NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_platform_configs_user_platform ON dbo.[platform_configs](user_id, platform);
END`},
	}
	for _, d := range ddl {
		if _, err := db.ExecContext(ctx, d.stmt); err != nil {
			return fmt.Errorf("create %s (mssql): %w", d.table, err)
		}
	}
	return nil
}
