// Package catalog builds the platform registry from configuration.
package catalog

import (
	"net/http"

	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/platforms"
	"social-publisher/infrastructure/platforms/blogger"
	"social-publisher/infrastructure/platforms/facebook"
	"social-publisher/infrastructure/platforms/linkedin"
	"social-publisher/infrastructure/platforms/twitter"
)

// New registers every supported platform. Platforms without credentials are
// still registered and fail with a configuration error when used.
func New(cfg configuration.OAuth, httpClient *http.Client) *platforms.Registry {
	return platforms.NewRegistry(
		linkedin.New(clientConfig(cfg.LinkedIn), httpClient),
		twitter.New(clientConfig(cfg.Twitter), httpClient),
		facebook.New(clientConfig(cfg.Facebook), httpClient),
		blogger.New(clientConfig(cfg.Blogger), httpClient),
	)
}

func clientConfig(c configuration.OAuthClient) platforms.ClientConfig {
	return platforms.ClientConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		Scopes:       c.Scopes,
	}
}
