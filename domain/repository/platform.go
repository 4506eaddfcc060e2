package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

// IPlatform is one platform's OAuth dialect and publish wire protocol.
type IPlatform interface {
	ID() string
	RequiresPKCE() bool
	// RedirectURI is the configured callback, empty when the caller's origin decides.
	RedirectURI() string
	// AuthorizationURL never includes the client secret.
	AuthorizationURL(state, redirectURI, codeVerifier string) (string, error)
	Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*model.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenSet, error)
	FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error)
	// Publish returns the platform assigned post id.
	Publish(ctx context.Context, cred model.Credential, content model.PublishContent) (string, error)
	Revoke(ctx context.Context, accessToken string) error
}

// IPlatformRegistry is the static platform id -> adapter lookup.
type IPlatformRegistry interface {
	Get(platform string) (IPlatform, bool)
	IDs() []string
}

// IStateStore keeps pending authorizations server-side, keyed by the state
// nonce, so a state token can be redeemed once and the PKCE verifier never
// travels inside it.
type IStateStore interface {
	Save(ctx context.Context, nonce, codeVerifier string, ttl time.Duration) error
	// Take returns and deletes the pending authorization. found is false when
	// the nonce was never saved, was already taken or has expired.
	Take(ctx context.Context, nonce string) (codeVerifier string, found bool, err error)
}

// IStateSigner issues and verifies the signed authorization state token.
type IStateSigner interface {
	Issue(state model.AuthorizationState) (string, *model.AuthorizationState, error)
	Verify(token string) (*model.AuthorizationState, error)
}
