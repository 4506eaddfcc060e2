package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var mssqlSchema = []string{
	`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.platform_connections') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[platform_connections] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NOT NULL,
        expires_at DATETIME2 NULL,
        scopes NVARCHAR(MAX) NOT NULL,
        external_account_id NVARCHAR(255) NOT NULL,
        display_name NVARCHAR(255) NOT NULL,
        email NVARCHAR(320) NULL,
        is_connected BIT NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_platform_connections_user_platform ON dbo.[platform_connections](user_id, platform);
END`,
	`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.publish_results') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[publish_results] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        post_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        user_id NVARCHAR(128) NOT NULL,
        status NVARCHAR(16) NOT NULL,
        external_post_id NVARCHAR(255) NULL,
        error_message NVARCHAR(MAX) NULL,
        published_at DATETIME2 NULL,
        attempt_id NVARCHAR(64) NOT NULL,
        attempt_count INT NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_publish_results_post_platform ON dbo.[publish_results](post_id, platform);
END`,
}

// EnsureSchemaMSSQL creates the SQL Server tables if they are missing.
func EnsureSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ddl := range mssqlSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema (mssql): %w", err)
		}
	}
	return nil
}
