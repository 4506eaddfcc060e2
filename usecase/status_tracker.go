package usecase

import (
	"context"
	"errors"
	"time"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

// IStatusTracker records the latest outcome of each (post, platform) dispatch.
type IStatusTracker interface {
	// Track returns nil, nil when the outcome is not tracked (credential or
	// request failures that never reached the platform).
	Track(ctx context.Context, userID string, content model.PublishContent, outcome model.Outcome, err error) (*model.PublishResult, error)
}

type StatusTracker struct {
	results   repository.IPublishResult
	notifiers []repository.IPublishNotifier
	now       func() time.Time
	newID     func() string
}

func NewStatusTracker(results repository.IPublishResult, notifiers ...repository.IPublishNotifier) IStatusTracker {
	return &StatusTracker{
		results:   results,
		notifiers: notifiers,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (t *StatusTracker) Track(ctx context.Context, userID string, content model.PublishContent, outcome model.Outcome, err error) (*model.PublishResult, error) {
	rec := &model.PublishResult{
		PostID:    content.PostID,
		Platform:  outcome.Platform,
		UserID:    userID,
		AttemptID: t.newID(),
	}

	switch {
	case err == nil && outcome.Success:
		rec.Status = model.PublishStatusPublished
		id := outcome.ExternalPostID
		rec.ExternalPostID = &id
		at := t.now().UTC()
		rec.PublishedAt = &at
	case apperror.Is(err, apperror.KindAuthentication), apperror.Is(err, apperror.KindValidation):
		return nil, nil
	case apperror.Is(err, apperror.KindTimeout):
		// the platform may still have created the post
		rec.Status = model.PublishStatusPending
		msg := errorText(outcome, err)
		rec.ErrorMessage = &msg
	default:
		rec.Status = model.PublishStatusFailed
		msg := errorText(outcome, err)
		rec.ErrorMessage = &msg
	}

	stored, upsertErr := t.results.Upsert(ctx, rec)
	if errors.Is(upsertErr, repository.ErrPostOwnedByAnotherUser) {
		return nil, apperror.Wrap(apperror.KindValidation, outcome.Platform, "postId belongs to another user", upsertErr)
	}
	if upsertErr != nil {
		return nil, apperror.Wrap(apperror.KindInternal, outcome.Platform, "store publish result", upsertErr)
	}

	for _, n := range t.notifiers {
		if nErr := n.Notify(ctx, stored); nErr != nil {
			logger.GetLogger().
				WithField("post_id", stored.PostID).
				WithField("platform", stored.Platform).
				WithField("error", nErr).
				Warn("Publish result notification failed")
		}
	}
	return stored, nil
}

func errorText(outcome model.Outcome, err error) string {
	if outcome.Error != "" {
		return outcome.Error
	}
	if err != nil {
		return err.Error()
	}
	return "platform reported failure"
}
