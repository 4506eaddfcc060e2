package repository

import (
	"context"
	"errors"

	"social-publisher/domain/model"
)

// ErrPostOwnedByAnotherUser is returned by IPublishResult.Upsert when the
// (post, platform) row already belongs to a different user.
var ErrPostOwnedByAnotherUser = errors.New("post is owned by another user")

// IPublishResult stores the latest outcome per (post, platform); last write wins
// for the user who owns the row.
type IPublishResult interface {
	// Upsert writes rec and returns the stored row, with AttemptCount incremented
	// on every write for the same key.
	Upsert(ctx context.Context, rec *model.PublishResult) (*model.PublishResult, error)
	// Get looks a row up by key regardless of owner; callers check UserID.
	Get(ctx context.Context, postID, platform string) (*model.PublishResult, error)
	ListByPost(ctx context.Context, userID, postID string) ([]*model.PublishResult, error)
}

// IPublishNotifier receives every tracked publish result (stream, audit, events).
type IPublishNotifier interface {
	Notify(ctx context.Context, rec *model.PublishResult) error
}

// IPublishAttemptLog reads back the append-only audit trail.
type IPublishAttemptLog interface {
	ListByPost(ctx context.Context, userID, postID string, limit int64) ([]model.PublishAttempt, error)
}
