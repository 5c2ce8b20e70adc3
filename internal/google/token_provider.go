package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth tokens for Google APIs.
type TokenProvider interface {
	// TokenSource returns a token source, or ErrNoToken when none is configured.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)

	// HasToken reports whether a token is available.
	HasToken() bool
}

var (
	_ TokenProvider = (*Auth)(nil)
	_ TokenProvider = (*RefreshTokenProvider)(nil)
)

// RefreshTokenProvider serves tokens minted from a long lived refresh token,
// typically supplied through GOOGLE_REFRESH_TOKEN on a server without a
// token cache.
type RefreshTokenProvider struct {
	conf         *oauth2.Config
	refreshToken string
}

// NewRefreshTokenProvider creates a provider for refreshToken.
func NewRefreshTokenProvider(cfg Config, refreshToken string) (*RefreshTokenProvider, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	conf, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &RefreshTokenProvider{conf: conf, refreshToken: refreshToken}, nil
}

// TokenSource returns a refreshing source seeded with an expired token.
func (p *RefreshTokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return p.conf.TokenSource(ctx, &oauth2.Token{
		TokenType:    "Bearer",
		RefreshToken: p.refreshToken,
		Expiry:       time.Unix(1, 0),
	}), nil
}

// HasToken always reports true.
func (p *RefreshTokenProvider) HasToken() bool {
	return true
}
