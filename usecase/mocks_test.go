package usecase_test

import (
	"context"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/stretchr/testify/mock"
)

type MockPlatform struct {
	mock.Mock
	id       string
	pkce     bool
	redirect string
}

func (m *MockPlatform) ID() string          { return m.id }
func (m *MockPlatform) RequiresPKCE() bool  { return m.pkce }
func (m *MockPlatform) RedirectURI() string { return m.redirect }

func (m *MockPlatform) AuthorizationURL(state, redirectURI, codeVerifier string) (string, error) {
	args := m.Called(state, redirectURI, codeVerifier)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*model.TokenSet, error) {
	args := m.Called(ctx, code, redirectURI, codeVerifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenSet), args.Error(1)
}

func (m *MockPlatform) Refresh(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenSet), args.Error(1)
}

func (m *MockPlatform) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockPlatform) Publish(ctx context.Context, cred model.Credential, content model.PublishContent) (string, error) {
	args := m.Called(ctx, cred, content)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) Revoke(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

type MockConnectionRepo struct {
	mock.Mock
}

func (m *MockConnectionRepo) Get(ctx context.Context, userID, platform string) (*model.PlatformConnection, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformConnection), args.Error(1)
}

func (m *MockConnectionRepo) Upsert(ctx context.Context, conn *model.PlatformConnection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *MockConnectionRepo) Disconnect(ctx context.Context, userID, platform string) error {
	return m.Called(ctx, userID, platform).Error(0)
}

func (m *MockConnectionRepo) ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PlatformConnection), args.Error(1)
}

type MockPublishResultRepo struct {
	mock.Mock
}

func (m *MockPublishResultRepo) Upsert(ctx context.Context, rec *model.PublishResult) (*model.PublishResult, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResult), args.Error(1)
}

func (m *MockPublishResultRepo) Get(ctx context.Context, postID, platform string) (*model.PublishResult, error) {
	args := m.Called(ctx, postID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResult), args.Error(1)
}

func (m *MockPublishResultRepo) ListByPost(ctx context.Context, userID, postID string) ([]*model.PublishResult, error) {
	args := m.Called(ctx, userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, rec *model.PublishResult) error {
	return m.Called(ctx, rec).Error(0)
}

type MockAttemptLog struct {
	mock.Mock
}

func (m *MockAttemptLog) ListByPost(ctx context.Context, userID, postID string, limit int64) ([]model.PublishAttempt, error) {
	args := m.Called(ctx, userID, postID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PublishAttempt), args.Error(1)
}

type MockStateSigner struct {
	mock.Mock
}

func (m *MockStateSigner) Issue(state model.AuthorizationState) (string, *model.AuthorizationState, error) {
	args := m.Called(state)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.AuthorizationState), args.Error(2)
}

func (m *MockStateSigner) Verify(token string) (*model.AuthorizationState, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthorizationState), args.Error(1)
}

type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, nonce, codeVerifier string, ttl time.Duration) error {
	return m.Called(ctx, nonce, codeVerifier, ttl).Error(0)
}

func (m *MockStateStore) Take(ctx context.Context, nonce string) (string, bool, error) {
	args := m.Called(ctx, nonce)
	return args.String(0), args.Bool(1), args.Error(2)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Publish(ctx context.Context, platform string, cred model.Credential, content model.PublishContent) (model.Outcome, error) {
	args := m.Called(ctx, platform, cred, content)
	return args.Get(0).(model.Outcome), args.Error(1)
}

type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track(ctx context.Context, userID string, content model.PublishContent, outcome model.Outcome, err error) (*model.PublishResult, error) {
	args := m.Called(ctx, userID, content, outcome, err)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResult), args.Error(1)
}

var (
	_ repository.IPlatform           = (*MockPlatform)(nil)
	_ repository.IPlatformConnection = (*MockConnectionRepo)(nil)
	_ repository.IPublishResult      = (*MockPublishResultRepo)(nil)
	_ repository.IPublishNotifier    = (*MockNotifier)(nil)
	_ repository.IPublishAttemptLog  = (*MockAttemptLog)(nil)
	_ repository.IStateSigner        = (*MockStateSigner)(nil)
	_ repository.IStateStore         = (*MockStateStore)(nil)
)
