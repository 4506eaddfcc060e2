package dto

import "time"

type AuthorizeRequest struct {
	Platform string `json:"-"`
	UserID   string `json:"-"`
	Origin   string `json:"origin"`
}

type AuthorizeResponse struct {
	Success      bool   `json:"success"`
	AuthURL      string `json:"authUrl"`
	State        string `json:"state"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

type ExchangeRequest struct {
	Platform     string `json:"-"`
	UserID       string `json:"-"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
	State        string `json:"state"`
}

// ExchangeResponse only carries tokens when the deployment opts into client-held credentials.
type ExchangeResponse struct {
	Success      bool    `json:"success"`
	Platform     string  `json:"platform"`
	AccessToken  string  `json:"access_token,omitempty"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	ExpiresIn    int64   `json:"expires_in,omitempty"`
	UserID       string  `json:"user_id"`
	AccountName  string  `json:"account_name"`
	Email        *string `json:"email,omitempty"`
}

type RevokeRequest struct {
	Platform    string `json:"-"`
	UserID      string `json:"-"`
	AccessToken string `json:"access_token"`
}

type RevokeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RefreshResponse struct {
	Success   bool  `json:"success"`
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

// ConnectionView is the secret-free status of one connection.
type ConnectionView struct {
	Platform          string     `json:"platform"`
	Connected         bool       `json:"connected"`
	ExternalAccountID string     `json:"external_account_id,omitempty"`
	AccountName       string     `json:"account_name,omitempty"`
	Email             *string    `json:"email,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

type ConnectionListResponse struct {
	Success     bool             `json:"success"`
	Connections []ConnectionView `json:"connections"`
}
