package model

import "time"

// AuthorizationState is an in-flight authorization round-trip. Everything but
// CodeVerifier travels inside the signed state token.
type AuthorizationState struct {
	Nonce        string
	UserID       string
	Platform     string
	RedirectURI  string
	CodeVerifier string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// TokenSet is the normalized result of a token endpoint call.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scopes       string
}

// ExpiresIn returns the remaining lifetime in seconds, zero when unknown.
func (t *TokenSet) ExpiresIn(now time.Time) int64 {
	if t == nil || t.ExpiresAt == nil {
		return 0
	}
	secs := int64(t.ExpiresAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Profile is the normalized identity of the connected platform account.
type Profile struct {
	ID          string
	DisplayName string
	Email       *string
}

// Credential is what a publish adapter receives. Data carries platform specific
// hints from the caller (authorId, blogId).
type Credential struct {
	AccessToken       string
	ExternalAccountID string
	Data              map[string]string
}
