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

type PublishResultRepositoryMSSQL struct{ db *sql.DB }

func NewPublishResultRepositoryMSSQL(db *sql.DB) repository.IPublishResult {
	return &PublishResultRepositoryMSSQL{db: db}
}

func (r *PublishResultRepositoryMSSQL) Upsert(ctx context.Context, rec *model.PublishResult) (*model.PublishResult, error) {
	now := time.Now().UTC()
	// HOLDLOCK keeps the match-then-insert atomic under concurrent writers. A
	// row owned by another user matches but is not updated, so OUTPUT is empty.
	q := `MERGE dbo.[publish_results] WITH (HOLDLOCK) AS target
USING (VALUES (@p1, @p2)) AS src(post_id, platform)
ON target.post_id = src.post_id AND target.platform = src.platform
WHEN MATCHED AND target.user_id = @p3 THEN UPDATE SET
    status=@p4,
    external_post_id=@p5,
    error_message=@p6,
    published_at=@p7,
    attempt_id=@p8,
    attempt_count=target.attempt_count+1,
    updated_at=@p9
WHEN NOT MATCHED THEN
    INSERT (post_id, platform, user_id, status, external_post_id, error_message, published_at, attempt_id, attempt_count, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,1,@p9,@p9)
OUTPUT inserted.id, inserted.post_id, inserted.platform, inserted.user_id, inserted.status, inserted.external_post_id,
    inserted.error_message, inserted.published_at, inserted.attempt_id, inserted.attempt_count, inserted.created_at, inserted.updated_at;`
	row := r.db.QueryRowContext(ctx, q,
		rec.PostID, rec.Platform, rec.UserID, string(rec.Status), nullString(rec.ExternalPostID),
		nullString(rec.ErrorMessage), nullTime(rec.PublishedAt), rec.AttemptID, now,
	)
	stored, err := scanPublishResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upsert publish result %s/%s (mssql): %w", rec.PostID, rec.Platform, repository.ErrPostOwnedByAnotherUser)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert publish result %s/%s (mssql): %w", rec.PostID, rec.Platform, err)
	}
	return stored, nil
}

func (r *PublishResultRepositoryMSSQL) Get(ctx context.Context, postID, platform string) (*model.PublishResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+publishResultColumns+` FROM dbo.[publish_results] WHERE post_id=@p1 AND platform=@p2`, postID, platform)
	rec, err := scanPublishResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publish result %s/%s (mssql): %w", postID, platform, err)
	}
	return rec, nil
}

func (r *PublishResultRepositoryMSSQL) ListByPost(ctx context.Context, userID, postID string) ([]*model.PublishResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+publishResultColumns+` FROM dbo.[publish_results] WHERE post_id=@p1 AND user_id=@p2 ORDER BY platform`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("list publish results %s (mssql): %w", postID, err)
	}
	defer rows.Close()
	return scanPublishResults(rows)
}
