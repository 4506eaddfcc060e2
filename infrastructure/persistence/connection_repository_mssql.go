package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

type ConnectionRepositoryMSSQL struct{ db *sql.DB }

func NewConnectionRepositoryMSSQL(db *sql.DB) repository.IPlatformConnection {
	return &ConnectionRepositoryMSSQL{db: db}
}

func (r *ConnectionRepositoryMSSQL) Upsert(ctx context.Context, c *model.PlatformConnection) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	// MERGE upsert by (user_id, platform)
	q := `MERGE dbo.[platform_connections] WITH (HOLDLOCK) AS target
USING (VALUES (@p1, @p2)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    access_token=@p3,
    refresh_token=@p4,
    expires_at=@p5,
    scopes=@p6,
    external_account_id=@p7,
    display_name=@p8,
    email=@p9,
    is_connected=@p10,
    updated_at=@p12
WHEN NOT MATCHED THEN
    INSERT (user_id, platform, access_token, refresh_token, expires_at, scopes, external_account_id, display_name, email, is_connected, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12)
OUTPUT inserted.id, inserted.created_at;`
	err := r.db.QueryRowContext(ctx, q,
		c.UserID, c.Platform, c.AccessToken, c.RefreshToken, nullTime(c.ExpiresAt), c.Scopes,
		c.ExternalAccountID, c.DisplayName, nullString(c.Email), c.IsConnected, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert connection %s/%s (mssql): %w", c.UserID, c.Platform, err)
	}
	return nil
}

func (r *ConnectionRepositoryMSSQL) Get(ctx context.Context, userID, platform string) (*model.PlatformConnection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM dbo.[platform_connections] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection %s/%s (mssql): %w", userID, platform, err)
	}
	return c, nil
}

func (r *ConnectionRepositoryMSSQL) Disconnect(ctx context.Context, userID, platform string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[platform_connections]
SET access_token='', refresh_token='', expires_at=NULL, is_connected=0, updated_at=@p3
WHERE user_id=@p1 AND platform=@p2`, userID, platform, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("disconnect %s/%s (mssql): %w", userID, platform, err)
	}
	return nil
}

func (r *ConnectionRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+connectionColumns+` FROM dbo.[platform_connections] WHERE user_id=@p1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections %s (mssql): %w", userID, err)
	}
	defer rows.Close()
	return scanConnections(rows)
}
