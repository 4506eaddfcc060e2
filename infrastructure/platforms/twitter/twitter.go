// Package twitter posts tweets through the X API v2 with OAuth 2.0 PKCE.
package twitter

import (
	"context"
	"net/http"
	"net/url"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/platforms"

	"golang.org/x/oauth2"
)

const (
	ID            = "twitter"
	maxTweetRunes = 280
)

var Defaults = platforms.ClientConfig{
	Scopes:     []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
	AuthURL:    "https://twitter.com/i/oauth2/authorize",
	TokenURL:   "https://api.twitter.com/2/oauth2/token",
	RevokeURL:  "https://api.twitter.com/2/oauth2/revoke",
	APIBaseURL: "https://api.twitter.com",
}

type Platform struct {
	*platforms.OAuthClient
	cfg platforms.ClientConfig
	api *platforms.APIClient
}

func New(cfg platforms.ClientConfig, httpClient *http.Client) *Platform {
	cfg = cfg.WithDefaults(Defaults)
	return &Platform{
		OAuthClient: platforms.NewOAuthClient(platforms.OAuthSettings{
			Platform:     ID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			AuthStyle:    oauth2.AuthStyleInHeader,
			AuthURL:      cfg.AuthURL,
			TokenURL:     cfg.TokenURL,
			PKCE:         true,
		}, httpClient),
		cfg: cfg,
		api: platforms.NewAPIClient(ID, httpClient),
	}
}

var _ repository.IPlatform = (*Platform)(nil)

func (p *Platform) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	_, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodGet,
		URL:         p.cfg.APIBaseURL + "/2/users/me",
		AccessToken: accessToken,
	}, &resp)
	if err != nil {
		return nil, platforms.ProfileFailure(ID, err)
	}
	if resp.Data.ID == "" {
		return nil, apperror.New(apperror.KindProfileFetch, ID, "profile response has no id")
	}
	name := resp.Data.Name
	if name == "" && resp.Data.Username != "" {
		name = "@" + resp.Data.Username
	}
	return &model.Profile{ID: resp.Data.ID, DisplayName: name}, nil
}

// Publish posts the title and body as a single tweet. Text longer than the
// tweet limit is rejected before any network call.
func (p *Platform) Publish(ctx context.Context, cred model.Credential, content model.PublishContent) (string, error) {
	text := content.Message()
	if len([]rune(text)) > maxTweetRunes {
		return "", apperror.New(apperror.KindPublish, ID, "tweet exceeds 280 characters")
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	_, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodPost,
		URL:         p.cfg.APIBaseURL + "/2/tweets",
		AccessToken: cred.AccessToken,
		JSON:        map[string]string{"text": text},
	}, &resp)
	if err != nil {
		return "", platforms.PublishFailure(ID, err)
	}
	return resp.Data.ID, nil
}

func (p *Platform) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("token", accessToken)
	form.Set("token_type_hint", "access_token")
	form.Set("client_id", p.cfg.ClientID)
	_, err := p.api.Do(ctx, platforms.Request{
		Method:   http.MethodPost,
		URL:      p.cfg.RevokeURL,
		Form:     form,
		Username: p.cfg.ClientID,
		Password: p.cfg.ClientSecret,
	}, nil)
	return err
}
