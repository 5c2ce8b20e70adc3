package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoToken is returned when no cached token exists.
var ErrNoToken = errors.New("no Google OAuth token found")

// OOBRedirectURL is the out-of-band redirect used by the copy/paste flow.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// Config configures the Google OAuth client.
type Config struct {
	// ClientID and ClientSecret identify the OAuth client.
	ClientID     string
	ClientSecret string

	// CredentialsFile is a client secret JSON downloaded from the Google
	// Cloud console. When set it takes precedence over ClientID/ClientSecret.
	CredentialsFile string

	// RedirectURL defaults to OOBRedirectURL.
	RedirectURL string

	// TokenFile is where the token is cached. Defaults to DefaultTokenFile().
	TokenFile string
}

// DefaultTokenFile returns $XDG_CACHE_HOME/luna/google.token.
func DefaultTokenFile() string {
	return filepath.Join(xdg.CacheHome, "luna", "google.token")
}

// Auth performs the authorization code flow and serves cached tokens.
type Auth struct {
	conf      *oauth2.Config
	tokenFile string
}

// NewAuth builds an Auth from cfg.
func NewAuth(cfg Config) (*Auth, error) {
	conf, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		tokenFile = DefaultTokenFile()
	}
	return &Auth{conf: conf, tokenFile: tokenFile}, nil
}

func oauthConfig(cfg Config) (*oauth2.Config, error) {
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}

	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		conf, err := google.ConfigFromJSON(data, DefaultOAuthScopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		if cfg.RedirectURL != "" || conf.RedirectURL == "" {
			conf.RedirectURL = redirect
		}
		return conf, nil
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google client id and secret are required")
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// OAuthConfig returns the underlying oauth2 configuration.
func (a *Auth) OAuthConfig() *oauth2.Config {
	return a.conf
}

// TokenFile returns the cache path.
func (a *Auth) TokenFile() string {
	return a.tokenFile
}

// AuthURL returns the URL the user visits to grant access.
func (a *Auth) AuthURL() string {
	return a.conf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and caches it.
func (a *Auth) Exchange(ctx context.Context, authCode string) error {
	authCode = strings.TrimSpace(authCode)
	if authCode == "" {
		return fmt.Errorf("authorization code is required")
	}
	tok, err := a.conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return saveToken(a.tokenFile, tok)
}

// HasToken reports whether a cached token exists.
func (a *Auth) HasToken() bool {
	_, err := loadToken(a.tokenFile)
	return err == nil
}

// TokenSource returns a refreshing token source backed by the cached token.
// Refreshed tokens are written back to the cache.
func (a *Auth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := loadToken(a.tokenFile)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		base: a.conf.TokenSource(ctx, tok),
		path: a.tokenFile,
		last: tok.AccessToken,
	}, nil
}

// HTTPClient returns an HTTP client that authenticates with p.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func HTTPClient(ctx context.Context, p TokenProvider) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client, nil
}

// AuthenticationErrorMessage explains how to authorize Luna when no token
// is available.
func AuthenticationErrorMessage() string {
	return "Google Calendar is not authorized. Run the google_get_auth_url tool (or `luna auth`), " +
		"complete the OAuth consent in a browser, then save the code with google_save_auth_code."
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// persistingTokenSource writes the token back whenever the access token
// changes.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
