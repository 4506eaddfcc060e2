// Package blogger publishes blog posts through the Blogger v3 API.
package blogger

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/platforms"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	bloggerapi "google.golang.org/api/blogger/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const ID = "blogger"

var Defaults = platforms.ClientConfig{
	Scopes:    []string{bloggerapi.BloggerScope},
	AuthURL:   google.Endpoint.AuthURL,
	TokenURL:  google.Endpoint.TokenURL,
	RevokeURL: "https://oauth2.googleapis.com/revoke",
}

type Platform struct {
	*platforms.OAuthClient
	cfg        platforms.ClientConfig
	api        *platforms.APIClient
	httpClient *http.Client
}

func New(cfg platforms.ClientConfig, httpClient *http.Client) *Platform {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
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
			PKCE:         true,
			// offline access is what makes Google return a refresh token
			AuthParams: map[string]string{"access_type": "offline", "prompt": "consent"},
		}, httpClient),
		cfg:        cfg,
		api:        platforms.NewAPIClient(ID, httpClient),
		httpClient: httpClient,
	}
}

var _ repository.IPlatform = (*Platform)(nil)

func (p *Platform) service(ctx context.Context, accessToken string) (*bloggerapi.Service, error) {
	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   p.httpClient.Transport,
		},
		Timeout: p.httpClient.Timeout,
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.cfg.APIBaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.APIBaseURL+"/"))
	}
	svc, err := bloggerapi.NewService(ctx, opts...)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, ID, "create blogger client", err)
	}
	return svc, nil
}

func (p *Platform) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	user, err := svc.Users.Get("self").Context(ctx).Do()
	if err != nil {
		return nil, googleFailure(apperror.KindProfileFetch, "profile fetch failed", false, err)
	}
	if user.Id == "" {
		return nil, apperror.New(apperror.KindProfileFetch, ID, "profile response has no id")
	}
	return &model.Profile{ID: user.Id, DisplayName: user.DisplayName}, nil
}

// Publish inserts a live post on the caller's blogId, or on the first blog the
// account owns when none is given.
func (p *Platform) Publish(ctx context.Context, cred model.Credential, content model.PublishContent) (string, error) {
	svc, err := p.service(ctx, cred.AccessToken)
	if err != nil {
		return "", err
	}
	blogID := cred.Data["blogId"]
	if blogID == "" {
		blogs, err := svc.Blogs.ListByUser("self").Context(ctx).Do()
		if err != nil {
			return "", googleFailure(apperror.KindPublish, "list blogs failed", true, err)
		}
		if len(blogs.Items) == 0 {
			return "", apperror.New(apperror.KindPublish, ID, "account has no blog")
		}
		blogID = blogs.Items[0].Id
	}

	post, err := svc.Posts.Insert(blogID, &bloggerapi.Post{
		Title:   content.Title,
		Content: content.Content,
	}).IsDraft(false).Context(ctx).Do()
	if err != nil {
		return "", googleFailure(apperror.KindPublish, "publish rejected", true, err)
	}
	return post.Id, nil
}

func (p *Platform) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("token", accessToken)
	_, err := p.api.Do(ctx, platforms.Request{Method: http.MethodPost, URL: p.cfg.RevokeURL, Form: form}, nil)
	return err
}

func googleFailure(kind apperror.Kind, message string, deniedIsAuth bool, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		body := gErr.Body
		if body == "" {
			body = gErr.Message
		}
		if deniedIsAuth && (gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden) {
			return apperror.Upstream(apperror.KindAuthentication, ID, "credential rejected", body)
		}
		return apperror.Upstream(kind, ID, message, body)
	}
	if platforms.IsTransport(err) {
		return platforms.TransportError(ID, message, err)
	}
	return apperror.Wrap(kind, ID, message, err)
}
