// Package auth runs the Strava OAuth flow and keeps the resulting tokens in
// the local store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
)

const (
	scope          = "activity:read_all"
	expiryLeeway   = 5 * time.Minute
	defaultTimeout = 5 * time.Minute
)

// Provider names the OAuth endpoints. StravaProvider is used outside tests.
type Provider struct {
	AuthURL     string
	TokenURL    string
	RedirectURL string
}

var StravaProvider = Provider{
	AuthURL:     "https://www.strava.com/oauth/authorize",
	TokenURL:    "https://www.strava.com/oauth/token",
	RedirectURL: "http://localhost:8089/callback",
}

// Credentials are the API application's client ID and secret.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Config returns the oauth2 configuration for creds.
func (p Provider) Config(creds Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: p.RedirectURL,
		Scopes:      []string{scope},
	}
}

// Token is the stored token set.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// TokenFromOAuth2 converts an oauth2.Token.
func TokenFromOAuth2(t *oauth2.Token) Token {
	return Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry.Unix(),
	}
}

// OAuth2 converts t back to an oauth2.Token.
func (t Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       time.Unix(t.ExpiresAt, 0),
		TokenType:    "Bearer",
	}
}

// Expired reports whether the token expires within five minutes of now.
func (t Token) Expired(now time.Time) bool {
	return now.Add(expiryLeeway).Unix() > t.ExpiresAt
}

// LoginOptions tune the interactive flow. Zero values use the defaults: the
// system browser, stdout and a five minute timeout.
type LoginOptions struct {
	OpenURL func(string) error
	Out     io.Writer
	Timeout time.Duration
}

// Authenticate runs the authorization code flow: it serves the redirect
// callback locally, opens the consent page and exchanges the returned code.
func (p Provider) Authenticate(ctx context.Context, creds Credentials, opts LoginOptions) (Token, error) {
	if opts.OpenURL == nil {
		opts.OpenURL = browser.OpenURL
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	log := logging.Logger
	cfg := p.Config(creds)

	callback, err := callbackListener(p.RedirectURL)
	if err != nil {
		return Token{}, err
	}
	cfg.RedirectURL = callback.redirectURL

	state := uuid.NewString()
	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callback.path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			reason := q.Get("error")
			if reason == "" {
				reason = "no authorization code received"
			}
			http.Error(w, reason, http.StatusBadRequest)
			select {
			case errs <- fmt.Errorf("authorization failed: %s", reason):
			default:
			}
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful</h1><p>You can close this window.</p></body></html>`)
		select {
		case codes <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(callback.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errs <- fmt.Errorf("callback server: %w", err):
			default:
			}
		}
	}()
	defer server.Close()

	consent := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
	fmt.Fprintf(opts.Out, "Opening browser for Strava authorization...\nIf it does not open, visit: %s\n\n", consent)
	if err := opts.OpenURL(consent); err != nil {
		log.Warn().Err(err).Msg("could not open browser")
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return Token{}, err
	case <-ctx.Done():
		return Token{}, ctx.Err()
	case <-timer.C:
		return Token{}, fmt.Errorf("authorization timed out after %s", opts.Timeout)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return Token{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	log.Info().Time("expires", tok.Expiry).Msg("strava authorization complete")
	return TokenFromOAuth2(tok), nil
}

// Refresh trades refreshToken for a new token set.
func (p Provider) Refresh(ctx context.Context, creds Credentials, refreshToken string) (Token, error) {
	expired := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	tok, err := p.Config(creds).TokenSource(ctx, expired).Token()
	if err != nil {
		return Token{}, fmt.Errorf("refreshing token: %w", err)
	}
	return TokenFromOAuth2(tok), nil
}
