package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenServer answers OAuth token requests with access tokens named after the grant.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		body := map[string]any{
			"token_type": "Bearer",
			"expires_in": 3600,
		}
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			body["access_token"] = "access-" + r.PostForm.Get("code")
			body["refresh_token"] = "refresh-1"
		case "refresh_token":
			body["access_token"] = "access-refreshed"
			body["refresh_token"] = "refresh-2"
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testProvider(ts *httptest.Server) Provider {
	return Provider{
		AuthURL:     "https://auth.invalid/authorize",
		TokenURL:    ts.URL,
		RedirectURL: "http://127.0.0.1:0/callback",
	}
}

var testCreds = Credentials{ClientID: "client", ClientSecret: "secret"}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Duration
		want bool
	}{
		{"expired an hour ago", -time.Hour, true},
		{"expires in one minute", time.Minute, true},
		{"expires in four minutes", 4 * time.Minute, true},
		{"expires in ten minutes", 10 * time.Minute, false},
		{"expires in an hour", time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Token{ExpiresAt: now.Add(tt.in).Unix()}
			assert.Equal(t, tt.want, tok.Expired(now))
		})
	}
}

func TestTokenOAuth2RoundTrip(t *testing.T) {
	expiry := time.Unix(1700000000, 0)
	tok := TokenFromOAuth2(&oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry})
	assert.Equal(t, Token{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1700000000}, tok)

	back := tok.OAuth2()
	assert.Equal(t, "a", back.AccessToken)
	assert.True(t, back.Expiry.Equal(expiry))
}

func TestProviderConfig(t *testing.T) {
	cfg := StravaProvider.Config(testCreds)
	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, "https://www.strava.com/oauth/token", cfg.Endpoint.TokenURL)
	assert.Equal(t, []string{"activity:read_all"}, cfg.Scopes)
	assert.Equal(t, oauth2.AuthStyleInParams, cfg.Endpoint.AuthStyle)
}

func TestAuthenticate(t *testing.T) {
	ts := tokenServer(t)
	p := testProvider(ts)

	var opened string
	tok, err := p.Authenticate(context.Background(), testCreds, LoginOptions{
		Timeout: 5 * time.Second,
		OpenURL: func(consent string) error {
			opened = consent
			u, err := url.Parse(consent)
			require.NoError(t, err)
			q := u.Query()

			cb, err := url.Parse(q.Get("redirect_uri"))
			require.NoError(t, err)
			cbq := cb.Query()
			cbq.Set("code", "xyz")
			cbq.Set("state", q.Get("state"))
			cb.RawQuery = cbq.Encode()

			resp, err := http.Get(cb.String())
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "access-xyz", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
	assert.Contains(t, opened, "approval_prompt=force")
}

func TestAuthenticate_Denied(t *testing.T) {
	ts := tokenServer(t)
	p := testProvider(ts)

	_, err := p.Authenticate(context.Background(), testCreds, LoginOptions{
		Timeout: 5 * time.Second,
		OpenURL: func(consent string) error {
			u, _ := url.Parse(consent)
			q := u.Query()
			resp, err := http.Get(q.Get("redirect_uri") + "?error=access_denied&state=" + url.QueryEscape(q.Get("state")))
			require.NoError(t, err)
			resp.Body.Close()
			return nil
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestAuthenticate_IgnoresForeignState(t *testing.T) {
	ts := tokenServer(t)
	p := testProvider(ts)

	_, err := p.Authenticate(context.Background(), testCreds, LoginOptions{
		Timeout: 200 * time.Millisecond,
		OpenURL: func(consent string) error {
			u, _ := url.Parse(consent)
			resp, err := http.Get(u.Query().Get("redirect_uri") + "?code=xyz&state=forged")
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			return nil
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestAuthenticate_Cancelled(t *testing.T) {
	ts := tokenServer(t)
	p := testProvider(ts)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Authenticate(ctx, testCreds, LoginOptions{
		OpenURL: func(string) error {
			cancel()
			return errors.New("no browser")
		},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRefresh(t *testing.T) {
	ts := tokenServer(t)
	tok, err := testProvider(ts).Refresh(context.Background(), testCreds, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-refreshed", tok.AccessToken)
	assert.Equal(t, "refresh-2", tok.RefreshToken)
	assert.Greater(t, tok.ExpiresAt, time.Now().Unix())
}
