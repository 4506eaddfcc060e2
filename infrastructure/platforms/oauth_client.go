package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"

	"golang.org/x/oauth2"
)

const maxResponseBodyBytes = 1 << 20

// OAuthSettings describes one platform's OAuth2 dialect.
type OAuthSettings struct {
	Platform     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	// AuthStyle selects HTTP Basic (AuthStyleInHeader) or form-body client secrets.
	AuthStyle  oauth2.AuthStyle
	AuthURL    string
	TokenURL   string
	PKCE       bool
	AuthParams map[string]string
}

// OAuthClient implements authorization URL building, code exchange and refresh
// for one platform. Adapters embed it.
type OAuthClient struct {
	settings   OAuthSettings
	httpClient *http.Client
	now        func() time.Time
}

func NewOAuthClient(settings OAuthSettings, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	settings.Platform = normalizeID(settings.Platform)
	settings.ClientID = strings.TrimSpace(settings.ClientID)
	settings.ClientSecret = strings.TrimSpace(settings.ClientSecret)
	return &OAuthClient{
		settings:   settings,
		httpClient: httpClient,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *OAuthClient) ID() string          { return c.settings.Platform }
func (c *OAuthClient) RequiresPKCE() bool  { return c.settings.PKCE }
func (c *OAuthClient) RedirectURI() string { return c.settings.RedirectURI }

func (c *OAuthClient) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.settings.ClientID,
		ClientSecret: c.settings.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       c.settings.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.settings.AuthURL,
			TokenURL:  c.settings.TokenURL,
			AuthStyle: c.settings.AuthStyle,
		},
	}
}

func (c *OAuthClient) AuthorizationURL(state, redirectURI, codeVerifier string) (string, error) {
	if c.settings.ClientID == "" {
		return "", apperror.New(apperror.KindConfiguration, c.ID(), "client id is not configured")
	}
	if redirectURI == "" {
		return "", apperror.New(apperror.KindConfiguration, c.ID(), "redirect uri is not configured")
	}
	opts := make([]oauth2.AuthCodeOption, 0, len(c.settings.AuthParams)+1)
	for k, v := range c.settings.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	if c.settings.PKCE {
		if codeVerifier == "" {
			return "", apperror.Validation("code verifier is required for " + c.ID())
		}
		opts = append(opts, oauth2.S256ChallengeOption(codeVerifier))
	}
	return c.config(redirectURI).AuthCodeURL(state, opts...), nil
}

func (c *OAuthClient) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*model.TokenSet, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperror.Validation("authorization code is required")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	if codeVerifier != "" {
		form.Set("code_verifier", codeVerifier)
	}
	// oauth2.Config.Exchange keeps the body only for non-2xx replies; a 200
	// without access_token must still surface the provider payload.
	return c.TokenRequest(ctx, form)
}

type tokenPayload struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	ExpiresIn        json.Number `json:"expires_in"`
	Scope            string      `json:"scope"`
	ErrorCode        string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

// TokenRequest posts form to the token endpoint, authenticating the client the
// way the platform expects.
func (c *OAuthClient) TokenRequest(ctx context.Context, form url.Values) (*model.TokenSet, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	form.Set("client_id", c.settings.ClientID)
	if c.settings.AuthStyle != oauth2.AuthStyleInHeader {
		form.Set("client_secret", c.settings.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTokenExchange, c.ID(), "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.settings.AuthStyle == oauth2.AuthStyleInHeader {
		req.SetBasicAuth(url.QueryEscape(c.settings.ClientID), url.QueryEscape(c.settings.ClientSecret))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, TransportError(c.ID(), "token request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, TransportError(c.ID(), "read token response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.Upstream(apperror.KindTokenExchange, c.ID(), "token exchange failed", string(body))
	}

	var payload tokenPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.Upstream(apperror.KindTokenExchange, c.ID(), "unreadable token response", string(body))
	}
	if payload.ErrorCode != "" || payload.AccessToken == "" {
		return nil, apperror.Upstream(apperror.KindTokenExchange, c.ID(), "token response missing access_token", string(body))
	}

	tokens := &model.TokenSet{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Scopes:       payload.Scope,
	}
	if secs, err := payload.ExpiresIn.Int64(); err == nil && secs > 0 {
		exp := c.now().Add(time.Duration(secs) * time.Second)
		tokens.ExpiresAt = &exp
	}
	if tokens.Scopes == "" {
		tokens.Scopes = strings.Join(c.settings.Scopes, " ")
	}
	return tokens, nil
}

// Refresh runs the refresh-token grant through the oauth2 token source.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, apperror.New(apperror.KindAuthentication, c.ID(), "no refresh token stored")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.config(c.settings.RedirectURI).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			return nil, apperror.Upstream(apperror.KindTokenExchange, c.ID(), "token refresh failed", string(rErr.Body))
		}
		if IsTransport(err) {
			return nil, TransportError(c.ID(), "token refresh failed", err)
		}
		return nil, apperror.Wrap(apperror.KindTokenExchange, c.ID(), "token refresh failed", err)
	}
	tokens := &model.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       strings.Join(c.settings.Scopes, " "),
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		tokens.Scopes = scope
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		tokens.ExpiresAt = &exp
	}
	return tokens, nil
}

func (c *OAuthClient) requireCredentials() error {
	if c.settings.ClientID == "" {
		return apperror.New(apperror.KindConfiguration, c.ID(), "client id is not configured")
	}
	if c.settings.ClientSecret == "" {
		return apperror.New(apperror.KindConfiguration, c.ID(), "client secret is not configured")
	}
	return nil
}
