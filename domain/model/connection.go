package model

import "time"

// PlatformConnection is the stored OAuth credential of one user on one platform.
// Tokens are never serialized.
type PlatformConnection struct {
	ID                int64      `json:"id"`
	UserID            string     `json:"user_id"`
	Platform          string     `json:"platform"`
	AccessToken       string     `json:"-"`
	RefreshToken      string     `json:"-"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Scopes            string     `json:"scopes"`
	ExternalAccountID string     `json:"external_account_id"`
	DisplayName       string     `json:"display_name"`
	Email             *string    `json:"email,omitempty"`
	IsConnected       bool       `json:"is_connected"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (c *PlatformConnection) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// Active reports whether the connection can be used to publish right now.
func (c *PlatformConnection) Active(now time.Time) bool {
	return c != nil && c.IsConnected && c.AccessToken != "" && !c.Expired(now)
}

// Credential returns what an adapter needs to act on behalf of the account.
func (c *PlatformConnection) Credential() Credential {
	return Credential{AccessToken: c.AccessToken, ExternalAccountID: c.ExternalAccountID}
}
