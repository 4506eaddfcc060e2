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

const publishResultColumns = `id, post_id, platform, user_id, status, external_post_id, error_message, published_at, attempt_id, attempt_count, created_at, updated_at`

type PublishResultRepository struct{ db *sql.DB }

func NewPublishResultRepository(db *sql.DB) repository.IPublishResult {
	return &PublishResultRepository{db: db}
}

// Upsert relies on ON CONFLICT so concurrent writers for one (post, platform)
// collapse into one row and attempt_count never skips or repeats. A row owned
// by another user is left alone and RETURNING yields nothing.
func (r *PublishResultRepository) Upsert(ctx context.Context, rec *model.PublishResult) (*model.PublishResult, error) {
	now := time.Now().UTC()
	q := `INSERT INTO publish_results (post_id, platform, user_id, status, external_post_id, error_message, published_at, attempt_id, attempt_count, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1,$9,$9)
		  ON CONFLICT (post_id, platform) DO UPDATE SET
			status=EXCLUDED.status,
			external_post_id=EXCLUDED.external_post_id,
			error_message=EXCLUDED.error_message,
			published_at=EXCLUDED.published_at,
			attempt_id=EXCLUDED.attempt_id,
			attempt_count=publish_results.attempt_count+1,
			updated_at=EXCLUDED.updated_at
		  WHERE publish_results.user_id=EXCLUDED.user_id
		  RETURNING ` + publishResultColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.PostID, rec.Platform, rec.UserID, string(rec.Status), nullString(rec.ExternalPostID),
		nullString(rec.ErrorMessage), nullTime(rec.PublishedAt), rec.AttemptID, now,
	)
	stored, err := scanPublishResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upsert publish result %s/%s: %w", rec.PostID, rec.Platform, repository.ErrPostOwnedByAnotherUser)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert publish result %s/%s: %w", rec.PostID, rec.Platform, err)
	}
	return stored, nil
}

func (r *PublishResultRepository) Get(ctx context.Context, postID, platform string) (*model.PublishResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+publishResultColumns+` FROM publish_results WHERE post_id=$1 AND platform=$2`, postID, platform)
	rec, err := scanPublishResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publish result %s/%s: %w", postID, platform, err)
	}
	return rec, nil
}

func (r *PublishResultRepository) ListByPost(ctx context.Context, userID, postID string) ([]*model.PublishResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+publishResultColumns+` FROM publish_results WHERE post_id=$1 AND user_id=$2 ORDER BY platform`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("list publish results %s: %w", postID, err)
	}
	defer rows.Close()
	return scanPublishResults(rows)
}

func scanPublishResult(row scanner) (*model.PublishResult, error) {
	rec := &model.PublishResult{}
	var status string
	var externalID, errMsg sql.NullString
	var publishedAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.PostID, &rec.Platform, &rec.UserID, &status, &externalID, &errMsg,
		&publishedAt, &rec.AttemptID, &rec.AttemptCount, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Status = model.PublishStatus(status)
	rec.ExternalPostID = stringPtr(externalID)
	rec.ErrorMessage = stringPtr(errMsg)
	rec.PublishedAt = timePtr(publishedAt)
	return rec, nil
}

func scanPublishResults(rows *sql.Rows) ([]*model.PublishResult, error) {
	var out []*model.PublishResult
	for rows.Next() {
		rec, err := scanPublishResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
