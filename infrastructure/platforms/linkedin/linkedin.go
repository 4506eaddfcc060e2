// Package linkedin publishes member shares through the UGC Posts API.
package linkedin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/platforms"

	"golang.org/x/oauth2"
)

const ID = "linkedin"

var Defaults = platforms.ClientConfig{
	Scopes:     []string{"r_liteprofile", "r_emailaddress", "w_member_social"},
	AuthURL:    "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL:   "https://www.linkedin.com/oauth/v2/accessToken",
	RevokeURL:  "https://www.linkedin.com/oauth/v2/revoke",
	APIBaseURL: "https://api.linkedin.com",
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

type member struct {
	ID                 string `json:"id"`
	LocalizedFirstName string `json:"localizedFirstName"`
	LocalizedLastName  string `json:"localizedLastName"`
}

type emailElements struct {
	Elements []struct {
		Handle struct {
			EmailAddress string `json:"emailAddress"`
		} `json:"handle~"`
	} `json:"elements"`
}

func restli() http.Header {
	return http.Header{"X-Restli-Protocol-Version": {"2.0.0"}}
}

func (p *Platform) me(ctx context.Context, accessToken string) (*member, error) {
	var m member
	_, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodGet,
		URL:         p.cfg.APIBaseURL + "/v2/me",
		AccessToken: accessToken,
		Header:      restli(),
	}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *Platform) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	m, err := p.me(ctx, accessToken)
	if err != nil {
		return nil, platforms.ProfileFailure(ID, err)
	}
	if m.ID == "" {
		return nil, apperror.New(apperror.KindProfileFetch, ID, "profile response has no id")
	}
	name := strings.TrimSpace(m.LocalizedFirstName + " " + m.LocalizedLastName)
	if name == "" {
		name = m.ID
	}
	profile := &model.Profile{ID: m.ID, DisplayName: name}

	// The email lives behind its own scope; a member may not have granted it.
	var emails emailElements
	_, err = p.api.Do(ctx, platforms.Request{
		Method:      http.MethodGet,
		URL:         p.cfg.APIBaseURL + "/v2/emailAddress?q=members&projection=(elements*(handle~))",
		AccessToken: accessToken,
		Header:      restli(),
	}, &emails)
	if err != nil {
		logger.GetLogger().WithField("platform", ID).WithError(err).Warn("Email lookup failed, continuing without email")
		return profile, nil
	}
	for _, e := range emails.Elements {
		if addr := e.Handle.EmailAddress; addr != "" {
			profile.Email = &addr
			break
		}
	}
	return profile, nil
}

type shareCommentary struct {
	Text string `json:"text"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

func newUGCPost(authorID, text string) ugcPost {
	return ugcPost{
		Author:         "urn:li:person:" + authorID,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			"com.linkedin.ugc.ShareContent": {
				ShareCommentary:    shareCommentary{Text: text},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
}

// Publish posts a public text share authored by the connected member. The
// author id comes from the stored connection, the caller's authorId hint, or a
// profile lookup, in that order.
func (p *Platform) Publish(ctx context.Context, cred model.Credential, content model.PublishContent) (string, error) {
	author := cred.ExternalAccountID
	if author == "" {
		author = cred.Data["authorId"]
	}
	if author == "" {
		m, err := p.me(ctx, cred.AccessToken)
		if err != nil {
			return "", platforms.PublishFailure(ID, err)
		}
		author = m.ID
	}
	if author == "" {
		return "", apperror.New(apperror.KindPublish, ID, "could not resolve post author")
	}

	var created struct {
		ID string `json:"id"`
	}
	header, err := p.api.Do(ctx, platforms.Request{
		Method:      http.MethodPost,
		URL:         p.cfg.APIBaseURL + "/v2/ugcPosts",
		AccessToken: cred.AccessToken,
		JSON:        newUGCPost(author, content.Message()),
		Header:      restli(),
	}, &created)
	if err != nil {
		return "", platforms.PublishFailure(ID, err)
	}
	if created.ID == "" {
		created.ID = header.Get("X-RestLi-Id")
	}
	return created.ID, nil
}

func (p *Platform) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("token", accessToken)
	_, err := p.api.Do(ctx, platforms.Request{Method: http.MethodPost, URL: p.cfg.RevokeURL, Form: form}, nil)
	return err
}
