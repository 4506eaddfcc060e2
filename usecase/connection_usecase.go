package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"social-publisher/domain/apperror"
	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"golang.org/x/oauth2"
)

type IConnectionUsecase interface {
	Authorize(ctx context.Context, req *dto.AuthorizeRequest) (*dto.AuthorizeResponse, error)
	Exchange(ctx context.Context, req *dto.ExchangeRequest) (*dto.ExchangeResponse, error)
	Revoke(ctx context.Context, req *dto.RevokeRequest) (*dto.RevokeResponse, error)
	Refresh(ctx context.Context, userID, platform string) (*dto.RefreshResponse, error)
	List(ctx context.Context, userID string) ([]dto.ConnectionView, error)
}

type ConnectionUsecase struct {
	registry     repository.IPlatformRegistry
	connRepo     repository.IPlatformConnection
	signer       repository.IStateSigner
	states       repository.IStateStore
	exposeTokens bool
	now          func() time.Time
	newVerifier  func() string
}

func NewConnectionUsecase(
	registry repository.IPlatformRegistry,
	connRepo repository.IPlatformConnection,
	signer repository.IStateSigner,
	states repository.IStateStore,
	exposeTokens bool,
) IConnectionUsecase {
	return &ConnectionUsecase{
		registry:     registry,
		connRepo:     connRepo,
		signer:       signer,
		states:       states,
		exposeTokens: exposeTokens,
		now:          time.Now,
		newVerifier:  oauth2.GenerateVerifier,
	}
}

func (u *ConnectionUsecase) platform(id string) (repository.IPlatform, error) {
	p, ok := u.registry.Get(strings.ToLower(id))
	if !ok {
		return nil, apperror.Validation("unsupported platform: " + id)
	}
	return p, nil
}

func (u *ConnectionUsecase) Authorize(ctx context.Context, req *dto.AuthorizeRequest) (*dto.AuthorizeResponse, error) {
	p, err := u.platform(req.Platform)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, apperror.New(apperror.KindAuthentication, p.ID(), "user is required")
	}

	redirectURI := p.RedirectURI()
	if redirectURI == "" {
		origin := strings.TrimRight(strings.TrimSpace(req.Origin), "/")
		if origin == "" {
			return nil, apperror.Validation("origin is required when no redirect uri is configured")
		}
		redirectURI = fmt.Sprintf("%s/auth/%s/callback", origin, p.ID())
	}

	var verifier string
	if p.RequiresPKCE() {
		verifier = u.newVerifier()
	}

	token, issued, err := u.signer.Issue(model.AuthorizationState{
		UserID:      req.UserID,
		Platform:    p.ID(),
		RedirectURI: redirectURI,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, p.ID(), "issue state", err)
	}

	authURL, err := p.AuthorizationURL(token, redirectURI, verifier)
	if err != nil {
		return nil, err
	}

	if err := u.states.Save(ctx, issued.Nonce, verifier, issued.ExpiresAt.Sub(issued.IssuedAt)); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, p.ID(), "store pending authorization", err)
	}

	logger.GetLogger().WithField("platform", p.ID()).WithField("user_id", req.UserID).Info("Authorization started")
	return &dto.AuthorizeResponse{
		Success:      true,
		AuthURL:      authURL,
		State:        token,
		CodeVerifier: verifier,
	}, nil
}

func (u *ConnectionUsecase) Exchange(ctx context.Context, req *dto.ExchangeRequest) (*dto.ExchangeResponse, error) {
	p, err := u.platform(req.Platform)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, apperror.Validation("code is required")
	}
	if req.State == "" {
		return nil, apperror.Validation("state is required")
	}

	state, err := u.signer.Verify(req.State)
	if err != nil {
		return nil, err
	}
	if state.Platform != p.ID() {
		return nil, apperror.Validation("state was issued for another platform")
	}
	if state.UserID != req.UserID {
		return nil, apperror.Validation("state was issued for another user")
	}
	if req.RedirectURI != "" && req.RedirectURI != state.RedirectURI {
		return nil, apperror.Validation("redirect_uri does not match the authorization request")
	}

	storedVerifier, found, err := u.states.Take(ctx, state.Nonce)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, p.ID(), "load pending authorization", err)
	}
	if !found {
		return nil, apperror.Validation("state has already been used or was not issued here")
	}

	verifier := req.CodeVerifier
	if verifier == "" {
		verifier = storedVerifier
	}

	tokens, err := p.Exchange(ctx, req.Code, state.RedirectURI, verifier)
	if err != nil {
		return nil, err
	}
	profile, err := p.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	conn := &model.PlatformConnection{
		UserID:            req.UserID,
		Platform:          p.ID(),
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		ExpiresAt:         tokens.ExpiresAt,
		Scopes:            tokens.Scopes,
		ExternalAccountID: profile.ID,
		DisplayName:       profile.DisplayName,
		Email:             profile.Email,
		IsConnected:       true,
	}
	if err := u.connRepo.Upsert(ctx, conn); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, p.ID(), "store connection", err)
	}

	logger.GetLogger().
		WithField("platform", p.ID()).
		WithField("user_id", req.UserID).
		WithField("external_account_id", profile.ID).
		Info("Platform connected")

	resp := &dto.ExchangeResponse{
		Success:     true,
		Platform:    p.ID(),
		UserID:      profile.ID,
		AccountName: profile.DisplayName,
		Email:       profile.Email,
		ExpiresIn:   tokens.ExpiresIn(u.now()),
	}
	if u.exposeTokens {
		resp.AccessToken = tokens.AccessToken
		resp.RefreshToken = tokens.RefreshToken
	}
	return resp, nil
}

// Revoke always clears the local connection; remote failures are only logged.
func (u *ConnectionUsecase) Revoke(ctx context.Context, req *dto.RevokeRequest) (*dto.RevokeResponse, error) {
	p, err := u.platform(req.Platform)
	if err != nil {
		return nil, err
	}
	log := logger.GetLogger().WithField("platform", p.ID()).WithField("user_id", req.UserID)

	token := req.AccessToken
	if token == "" && req.UserID != "" {
		conn, err := u.connRepo.Get(ctx, req.UserID, p.ID())
		if err != nil {
			log.WithField("error", err).Warn("Failed to load connection before revoke")
		} else if conn != nil {
			token = conn.AccessToken
		}
	}

	if token != "" {
		if err := p.Revoke(ctx, token); err != nil {
			log.WithField("kind", apperror.KindOf(err)).WithField("error", err).Warn("Remote revoke failed, clearing local connection anyway")
		}
	}

	if req.UserID != "" {
		if err := u.connRepo.Disconnect(ctx, req.UserID, p.ID()); err != nil {
			log.WithField("error", err).Error("Failed to clear local connection")
		}
	}

	log.Info("Platform disconnected")
	return &dto.RevokeResponse{Success: true, Message: "Disconnected from " + p.ID()}, nil
}

func (u *ConnectionUsecase) Refresh(ctx context.Context, userID, platform string) (*dto.RefreshResponse, error) {
	p, err := u.platform(platform)
	if err != nil {
		return nil, err
	}
	conn, err := u.connRepo.Get(ctx, userID, p.ID())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, p.ID(), "load connection", err)
	}
	if conn == nil || !conn.IsConnected {
		return nil, apperror.New(apperror.KindAuthentication, p.ID(), "platform is not connected")
	}

	tokens, err := p.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		return nil, err
	}

	conn.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		conn.RefreshToken = tokens.RefreshToken
	}
	conn.ExpiresAt = tokens.ExpiresAt
	if tokens.Scopes != "" {
		conn.Scopes = tokens.Scopes
	}
	if err := u.connRepo.Upsert(ctx, conn); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, p.ID(), "store connection", err)
	}
	return &dto.RefreshResponse{Success: true, ExpiresIn: tokens.ExpiresIn(u.now())}, nil
}

// List reports every supported platform, connected or not.
func (u *ConnectionUsecase) List(ctx context.Context, userID string) ([]dto.ConnectionView, error) {
	conns, err := u.connRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "", "list connections", err)
	}
	byPlatform := make(map[string]*model.PlatformConnection, len(conns))
	for _, c := range conns {
		byPlatform[c.Platform] = c
	}

	now := u.now()
	views := make([]dto.ConnectionView, 0, len(u.registry.IDs()))
	for _, id := range u.registry.IDs() {
		view := dto.ConnectionView{Platform: id}
		if c, ok := byPlatform[id]; ok && c.IsConnected {
			view.Connected = c.Active(now)
			view.ExternalAccountID = c.ExternalAccountID
			view.AccountName = c.DisplayName
			view.Email = c.Email
			view.ExpiresAt = c.ExpiresAt
		}
		views = append(views, view)
	}
	return views, nil
}
