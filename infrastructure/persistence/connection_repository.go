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

const connectionColumns = `id, user_id, platform, access_token, refresh_token, expires_at, scopes, external_account_id, display_name, email, is_connected, created_at, updated_at`

type ConnectionRepository struct{ db *sql.DB }

func NewConnectionRepository(db *sql.DB) repository.IPlatformConnection {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Upsert(ctx context.Context, c *model.PlatformConnection) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	q := `INSERT INTO platform_connections (user_id, platform, access_token, refresh_token, expires_at, scopes, external_account_id, display_name, email, is_connected, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			external_account_id=EXCLUDED.external_account_id,
			display_name=EXCLUDED.display_name,
			email=EXCLUDED.email,
			is_connected=EXCLUDED.is_connected,
			updated_at=EXCLUDED.updated_at
		  RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q,
		c.UserID, c.Platform, c.AccessToken, c.RefreshToken, nullTime(c.ExpiresAt), c.Scopes,
		c.ExternalAccountID, c.DisplayName, nullString(c.Email), c.IsConnected, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert connection %s/%s: %w", c.UserID, c.Platform, err)
	}
	return nil
}

func (r *ConnectionRepository) Get(ctx context.Context, userID, platform string) (*model.PlatformConnection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM platform_connections WHERE user_id=$1 AND platform=$2`, userID, platform)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection %s/%s: %w", userID, platform, err)
	}
	return c, nil
}

func (r *ConnectionRepository) Disconnect(ctx context.Context, userID, platform string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE platform_connections
		SET access_token='', refresh_token='', expires_at=NULL, is_connected=FALSE, updated_at=$3
		WHERE user_id=$1 AND platform=$2`, userID, platform, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("disconnect %s/%s: %w", userID, platform, err)
	}
	return nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+connectionColumns+` FROM platform_connections WHERE user_id=$1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections %s: %w", userID, err)
	}
	defer rows.Close()
	return scanConnections(rows)
}

func scanConnection(row scanner) (*model.PlatformConnection, error) {
	c := &model.PlatformConnection{}
	var exp sql.NullTime
	var email sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.AccessToken, &c.RefreshToken, &exp, &c.Scopes,
		&c.ExternalAccountID, &c.DisplayName, &email, &c.IsConnected, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ExpiresAt = timePtr(exp)
	c.Email = stringPtr(email)
	return c, nil
}

func scanConnections(rows *sql.Rows) ([]*model.PlatformConnection, error) {
	var out []*model.PlatformConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
