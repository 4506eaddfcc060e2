// Package oauthstate issues and verifies the signed state token that binds an
// authorization round-trip to its user, platform and redirect URI.
package oauthstate

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "social-publisher"
	nonceBytes = 16
)

var ErrNoSecret = errors.New("state secret is not configured")

type claims struct {
	jwt.RegisteredClaims
	Platform    string `json:"platform"`
	RedirectURI string `json:"redirect_uri"`
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

var _ repository.IStateSigner = (*Signer)(nil)

// Issue signs state with a fresh nonce and expiry. CodeVerifier is not signed;
// it is returned untouched for the caller to store.
func (s *Signer) Issue(state model.AuthorizationState) (string, *model.AuthorizationState, error) {
	nonce, err := newNonce()
	if err != nil {
		return "", nil, apperror.Wrap(apperror.KindInternal, state.Platform, "generate state nonce", err)
	}
	now := s.now().Truncate(time.Second)
	state.Nonce = nonce
	state.IssuedAt = now
	state.ExpiresAt = now.Add(s.ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        state.Nonce,
			Issuer:    issuer,
			Subject:   state.UserID,
			IssuedAt:  jwt.NewNumericDate(state.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(state.ExpiresAt),
		},
		Platform:    state.Platform,
		RedirectURI: state.RedirectURI,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", nil, apperror.Wrap(apperror.KindInternal, state.Platform, "sign state", err)
	}
	return token, &state, nil
}

// Verify checks the signature and expiry and returns the carried state.
func (s *Signer) Verify(token string) (*model.AuthorizationState, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.Validation("state is required")
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// expiry is checked below against the injected clock
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, apperror.Validation("state is invalid")
	}
	if c.Issuer != issuer || c.ID == "" || c.ExpiresAt == nil || c.Platform == "" {
		return nil, apperror.Validation("state is incomplete")
	}
	if !c.ExpiresAt.Time.After(s.now()) {
		return nil, apperror.Validation("state has expired")
	}
	state := &model.AuthorizationState{
		Nonce:       c.ID,
		UserID:      c.Subject,
		Platform:    c.Platform,
		RedirectURI: c.RedirectURI,
		ExpiresAt:   c.ExpiresAt.Time.UTC(),
	}
	if c.IssuedAt != nil {
		state.IssuedAt = c.IssuedAt.Time.UTC()
	}
	return state, nil
}

func newNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
