// Package facebook publishes feed posts through the Graph API.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/platforms"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
)

const ID = "facebook"

var Defaults = platforms.ClientConfig{
	Scopes:     []string{"public_profile", "email", "pages_show_list", "pages_manage_posts"},
	AuthURL:    "https://www.facebook.com/v19.0/dialog/oauth",
	TokenURL:   "https://graph.facebook.com/v19.0/oauth/access_token",
	APIBaseURL: "https://graph.facebook.com/v19.0",
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
			AuthStyle:    oauth2.AuthStyleInParams,
			AuthURL:      cfg.AuthURL,
			TokenURL:     cfg.TokenURL,
		}, httpClient),
		cfg: cfg,
		api: platforms.NewAPIClient(ID, httpClient),
	}
}

var _ repository.IPlatform = (*Platform)(nil)

// Exchange trades the code for a short-lived user token and upgrades it to a
// long-lived one. A failed upgrade keeps the short-lived token.
func (p *Platform) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*model.TokenSet, error) {
	short, err := p.OAuthClient.Exchange(ctx, code, redirectURI, codeVerifier)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "fb_exchange_token")
	form.Set("fb_exchange_token", short.AccessToken)
	long, err := p.TokenRequest(ctx, form)
	if err != nil {
		logger.GetLogger().WithField("platform", ID).WithError(err).Warn("Long-lived token exchange failed, keeping short-lived token")
		return short, nil
	}
	if long.Scopes == "" {
		long.Scopes = short.Scopes
	}
	return long, nil
}

func (p *Platform) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	var me struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	_, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodGet,
		URL:         p.cfg.APIBaseURL + "/me?fields=id,name,email",
		AccessToken: accessToken,
	}, &me)
	if err != nil {
		return nil, platforms.ProfileFailure(ID, err)
	}
	if me.ID == "" {
		return nil, apperror.New(apperror.KindProfileFetch, ID, "profile response has no id")
	}
	profile := &model.Profile{ID: me.ID, DisplayName: me.Name}
	if me.Email != "" {
		profile.Email = &me.Email
	}
	return profile, nil
}

type feedPost struct {
	Message     string `url:"message"`
	Link        string `url:"link,omitempty"`
	AccessToken string `url:"access_token"`
}

type page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// Publish writes to the user's feed, or to a managed page when the caller
// passes a pageId; page posts use the page token from /me/accounts.
func (p *Platform) Publish(ctx context.Context, cred model.Credential, content model.PublishContent) (string, error) {
	target, token := "me", cred.AccessToken
	if pageID := cred.Data["pageId"]; pageID != "" {
		pg, err := p.page(ctx, cred.AccessToken, pageID)
		if err != nil {
			return "", err
		}
		target, token = pg.ID, pg.AccessToken
	}

	form, err := query.Values(feedPost{Message: content.Message(), Link: cred.Data["link"], AccessToken: token})
	if err != nil {
		return "", apperror.Wrap(apperror.KindPublish, ID, "encode feed post", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	_, err = p.api.Do(ctx, platforms.Request{
		Method: http.MethodPost,
		URL:    p.cfg.APIBaseURL + "/" + url.PathEscape(target) + "/feed",
		Form:   form,
	}, &created)
	if err != nil {
		return "", graphFailure(err)
	}
	return created.ID, nil
}

func (p *Platform) page(ctx context.Context, accessToken, pageID string) (*page, error) {
	var accounts struct {
		Data []page `json:"data"`
	}
	_, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodGet,
		URL:         p.cfg.APIBaseURL + "/me/accounts",
		AccessToken: accessToken,
	}, &accounts)
	if err != nil {
		return nil, graphFailure(err)
	}
	for i := range accounts.Data {
		if accounts.Data[i].ID == pageID && accounts.Data[i].AccessToken != "" {
			return &accounts.Data[i], nil
		}
	}
	return nil, apperror.New(apperror.KindPublish, ID, "page "+pageID+" is not managed by this account")
}

type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

// tokenRejected reports whether the Graph error means the access token is
// invalid, expired or no longer authorized. The Graph API sends these as 400.
func (g graphError) tokenRejected() bool {
	switch {
	case g.Error.Code == 190, g.Error.Code == 102:
		return true
	case g.Error.ErrorSubcode >= 458 && g.Error.ErrorSubcode <= 467:
		return true
	}
	return false
}

func graphFailure(err error) error {
	var statusErr *platforms.StatusError
	if errors.As(err, &statusErr) {
		var g graphError
		if json.Unmarshal([]byte(statusErr.Body), &g) == nil && g.tokenRejected() {
			return apperror.Upstream(apperror.KindAuthentication, ID, "credential rejected", statusErr.Body)
		}
	}
	return platforms.PublishFailure(ID, err)
}

// Revoke removes every permission the user granted the app.
func (p *Platform) Revoke(ctx context.Context, accessToken string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	_, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodDelete,
		URL:         p.cfg.APIBaseURL + "/me/permissions",
		AccessToken: accessToken,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return apperror.New(apperror.KindNetwork, ID, "permission revoke was not acknowledged")
	}
	return nil
}
