package usecase

import (
	"context"
	"strings"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

// IDispatcher sends one piece of content to one platform and normalizes the result.
type IDispatcher interface {
	Publish(ctx context.Context, platform string, cred model.Credential, content model.PublishContent) (model.Outcome, error)
}

type Dispatcher struct {
	registry repository.IPlatformRegistry
}

func NewDispatcher(registry repository.IPlatformRegistry) IDispatcher {
	return &Dispatcher{registry: registry}
}

// Publish never retries. The returned Outcome always mirrors err: Success is
// true only when err is nil and the platform returned a post id.
func (d *Dispatcher) Publish(ctx context.Context, platform string, cred model.Credential, content model.PublishContent) (model.Outcome, error) {
	platform = strings.ToLower(platform)
	out := model.Outcome{Platform: platform}

	p, ok := d.registry.Get(platform)
	if !ok {
		return failed(out, apperror.Validation("unsupported platform: "+platform))
	}
	if cred.AccessToken == "" {
		return failed(out, apperror.New(apperror.KindAuthentication, platform, "no access token for platform"))
	}
	if strings.TrimSpace(content.Content) == "" && strings.TrimSpace(content.Title) == "" {
		return failed(out, apperror.Validation("content is required"))
	}

	id, err := p.Publish(ctx, cred, content)
	if err != nil {
		return failed(out, err)
	}
	if id == "" {
		logger.GetLogger().WithField("platform", platform).WithField("post_id", content.PostID).
			Error("Platform adapter reported success without a post id")
		return failed(out, apperror.New(apperror.KindPublish, platform, "platform reported success without a post id"))
	}

	out.Success = true
	out.ExternalPostID = id
	return out, nil
}

func failed(out model.Outcome, err error) (model.Outcome, error) {
	out.Success = false
	out.Error = err.Error()
	out.ErrorKind = string(apperror.KindOf(err))
	out.Retryable = apperror.Retryable(err)
	return out, err
}
