package clients

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthConfig holds upstream credentials. Client credentials take precedence
// over basic auth when both are set.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	Username string
	Password string
}

// Validate rejects a client id without a token endpoint
func (a *AuthConfig) Validate() error {
	if a.ClientID != "" && a.TokenURL == "" {
		return fmt.Errorf("oauth2 client %q has no token url", a.ClientID)
	}
	return nil
}

func (a *AuthConfig) wrap(base http.RoundTripper, logger *zap.Logger) (http.RoundTripper, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	switch {
	case a.ClientID != "":
		cc := &clientcredentials.Config{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     a.TokenURL,
			Scopes:       a.Scopes,
		}
		// token requests go through the same tuned transport
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		logger.Debug("using oauth2 client credentials", zap.String("token_url", a.TokenURL))
		return &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, cc.TokenSource(ctx)),
			Base:   base,
		}, nil
	case a.Username != "":
		logger.Debug("using basic auth", zap.String("username", a.Username))
		return &basicAuthTransport{username: a.Username, password: a.Password, base: base}, nil
	default:
		return base, nil
	}
}

type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(clone)
}
