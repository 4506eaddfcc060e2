package usecase

import (
	"context"
	"strings"
	"time"

	"social-publisher/domain/apperror"
	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

const defaultAttemptLimit = 50

type IPublishUsecase interface {
	// Publish dispatches req to every target platform. The returned outcomes
	// follow the request order; err is only set for request level failures.
	Publish(ctx context.Context, req *dto.PublishRequest) ([]model.Outcome, error)
	// GetStatus lists the caller's results for a post, optionally for one platform.
	GetStatus(ctx context.Context, userID, postID, platform string) ([]*model.PublishResult, error)
	Attempts(ctx context.Context, userID, postID string, limit int64) ([]model.PublishAttempt, error)
}

type PublishUsecase struct {
	dispatcher IDispatcher
	tracker    IStatusTracker
	connRepo   repository.IPlatformConnection
	results    repository.IPublishResult
	attempts   repository.IPublishAttemptLog // optional
	now        func() time.Time
}

func NewPublishUsecase(dispatcher IDispatcher, tracker IStatusTracker, connRepo repository.IPlatformConnection, results repository.IPublishResult) *PublishUsecase {
	return &PublishUsecase{
		dispatcher: dispatcher,
		tracker:    tracker,
		connRepo:   connRepo,
		results:    results,
		now:        time.Now,
	}
}

// WithAttemptLog enables the audit trail read path.
func (u *PublishUsecase) WithAttemptLog(log repository.IPublishAttemptLog) *PublishUsecase {
	u.attempts = log
	return u
}

func (u *PublishUsecase) Publish(ctx context.Context, req *dto.PublishRequest) ([]model.Outcome, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required")
	}
	if strings.TrimSpace(req.PostID) == "" {
		return nil, apperror.Validation("postId is required")
	}
	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.Title) == "" {
		return nil, apperror.Validation("content is required")
	}
	targets := req.TargetPlatforms()
	if len(targets) == 0 {
		return nil, apperror.Validation("platform is required")
	}
	// A raw token belongs to exactly one platform account.
	if req.AccessToken != "" && len(targets) > 1 {
		return nil, apperror.Validation("accessToken can only be used with a single platform")
	}
	if req.AccessToken == "" && req.UserID == "" {
		return nil, apperror.New(apperror.KindAuthentication, "", "no user or access token to publish with")
	}

	content := model.PublishContent{PostID: req.PostID, Title: req.Title, Content: req.Content}
	outcomes := make([]model.Outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range targets {
		g.Go(func() error {
			outcomes[i] = u.publishOne(gctx, req, platform, content)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

// publishOne never fails the group: every platform is dispatched and tracked
// on its own.
func (u *PublishUsecase) publishOne(ctx context.Context, req *dto.PublishRequest, platform string, content model.PublishContent) model.Outcome {
	log := logger.GetLogger().WithField("post_id", req.PostID).WithField("platform", platform).WithField("user_id", req.UserID)

	err := u.checkOwner(ctx, req, platform)
	var cred model.Credential
	if err == nil {
		cred, err = u.credential(ctx, req, platform)
	}
	var outcome model.Outcome
	if err != nil {
		outcome = model.Outcome{
			Platform:  platform,
			Error:     err.Error(),
			ErrorKind: string(apperror.KindOf(err)),
			Retryable: apperror.Retryable(err),
		}
	} else {
		outcome, err = u.dispatcher.Publish(ctx, platform, cred, content)
	}

	if err != nil {
		log.WithField("kind", apperror.KindOf(err)).WithField("error", err).Warn("Publish failed")
	} else {
		log.WithField("external_post_id", outcome.ExternalPostID).Info("Published")
	}

	if _, trackErr := u.tracker.Track(ctx, req.UserID, content, outcome, err); trackErr != nil {
		log.WithField("error", trackErr).Error("Failed to track publish result")
	}
	return outcome
}

// checkOwner refuses a postId another user already published under, before
// anything reaches the platform.
func (u *PublishUsecase) checkOwner(ctx context.Context, req *dto.PublishRequest, platform string) error {
	existing, err := u.results.Get(ctx, req.PostID, platform)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, platform, "load publish result", err)
	}
	if existing != nil && existing.UserID != req.UserID {
		return apperror.New(apperror.KindValidation, platform, "postId belongs to another user")
	}
	return nil
}

func (u *PublishUsecase) credential(ctx context.Context, req *dto.PublishRequest, platform string) (model.Credential, error) {
	if req.AccessToken != "" {
		return model.Credential{AccessToken: req.AccessToken, Data: req.PlatformSpecificData}, nil
	}
	conn, err := u.connRepo.Get(ctx, req.UserID, platform)
	if err != nil {
		return model.Credential{}, apperror.Wrap(apperror.KindInternal, platform, "load connection", err)
	}
	if conn == nil || !conn.IsConnected {
		return model.Credential{}, apperror.New(apperror.KindAuthentication, platform, "platform is not connected")
	}
	if !conn.Active(u.now()) {
		return model.Credential{}, apperror.New(apperror.KindAuthentication, platform, "stored credential has expired, reconnect or refresh")
	}
	cred := conn.Credential()
	cred.Data = req.PlatformSpecificData
	return cred, nil
}

func (u *PublishUsecase) GetStatus(ctx context.Context, userID, postID, platform string) ([]*model.PublishResult, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, apperror.Validation("postId is required")
	}
	if platform = strings.ToLower(strings.TrimSpace(platform)); platform != "" {
		rec, err := u.results.Get(ctx, postID, platform)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, platform, "get publish result", err)
		}
		if rec == nil || rec.UserID != userID {
			return []*model.PublishResult{}, nil
		}
		return []*model.PublishResult{rec}, nil
	}
	results, err := u.results.ListByPost(ctx, userID, postID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "", "list publish results", err)
	}
	if results == nil {
		results = []*model.PublishResult{}
	}
	return results, nil
}

func (u *PublishUsecase) Attempts(ctx context.Context, userID, postID string, limit int64) ([]model.PublishAttempt, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, apperror.Validation("postId is required")
	}
	if u.attempts == nil {
		return []model.PublishAttempt{}, nil
	}
	if limit <= 0 || limit > defaultAttemptLimit {
		limit = defaultAttemptLimit
	}
	attempts, err := u.attempts.ListByPost(ctx, userID, postID, limit)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "", "list publish attempts", err)
	}
	if attempts == nil {
		attempts = []model.PublishAttempt{}
	}
	return attempts, nil
}
