package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
)

// ErrNotAuthenticated is returned when no usable credentials or tokens are stored.
var ErrNotAuthenticated = errors.New("not authenticated: run 'sub5 auth login' first")

// Storage keeps credentials and tokens in the auth_config table.
type Storage struct {
	queries  *db.Queries
	provider Provider
	now      func() time.Time
}

// NewStorage returns Storage refreshing tokens against provider.
func NewStorage(queries *db.Queries, provider Provider) *Storage {
	return &Storage{queries: queries, provider: provider, now: time.Now}
}

// SaveCredentials stores creds, dropping any tokens issued for earlier ones.
func (s *Storage) SaveCredentials(ctx context.Context, creds Credentials) error {
	return s.queries.SaveAuthConfig(ctx, db.SaveAuthConfigParams{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
}

// SaveLogin stores creds together with the token set they produced.
func (s *Storage) SaveLogin(ctx context.Context, creds Credentials, tok Token) error {
	return s.queries.SaveAuthConfig(ctx, db.SaveAuthConfigParams{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		AccessToken:  sql.NullString{String: tok.AccessToken, Valid: true},
		RefreshToken: sql.NullString{String: tok.RefreshToken, Valid: true},
		ExpiresAt:    sql.NullInt64{Int64: tok.ExpiresAt, Valid: true},
	})
}

// SaveToken replaces the stored tokens, keeping the credentials.
func (s *Storage) SaveToken(ctx context.Context, tok Token) error {
	if _, err := s.Credentials(ctx); err != nil {
		return err
	}
	return s.queries.UpdateTokens(ctx, db.UpdateTokensParams{
		AccessToken:  sql.NullString{String: tok.AccessToken, Valid: true},
		RefreshToken: sql.NullString{String: tok.RefreshToken, Valid: true},
		ExpiresAt:    sql.NullInt64{Int64: tok.ExpiresAt, Valid: true},
	})
}

// Credentials loads the stored client credentials.
func (s *Storage) Credentials(ctx context.Context) (Credentials, error) {
	cfg, err := s.queries.GetAuthConfig(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, ErrNotAuthenticated
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("loading auth config: %w", err)
	}
	return Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}, nil
}

// Token loads the stored token set.
func (s *Storage) Token(ctx context.Context) (Token, error) {
	cfg, err := s.queries.GetAuthConfig(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrNotAuthenticated
	}
	if err != nil {
		return Token{}, fmt.Errorf("loading auth config: %w", err)
	}
	if !cfg.AccessToken.Valid || cfg.AccessToken.String == "" {
		return Token{}, ErrNotAuthenticated
	}
	return Token{
		AccessToken:  cfg.AccessToken.String,
		RefreshToken: cfg.RefreshToken.String,
		ExpiresAt:    cfg.ExpiresAt.Int64,
	}, nil
}

// Delete removes credentials and tokens.
func (s *Storage) Delete(ctx context.Context) error {
	return s.queries.DeleteAuthConfig(ctx)
}

// AccessToken returns a usable access token, refreshing and storing a new
// token set when the current one is about to expire.
func (s *Storage) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return "", err
	}
	if !tok.Expired(s.now()) {
		return tok.AccessToken, nil
	}

	fresh, err := s.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// Refresh unconditionally refreshes and stores the token set.
func (s *Storage) Refresh(ctx context.Context) (Token, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return Token{}, err
	}
	tok, err := s.Token(ctx)
	if err != nil {
		return Token{}, err
	}

	fresh, err := s.provider.Refresh(ctx, creds, tok.RefreshToken)
	if err != nil {
		return Token{}, err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	if err := s.SaveToken(ctx, fresh); err != nil {
		return Token{}, fmt.Errorf("saving refreshed token: %w", err)
	}

	logging.Logger.Debug().Time("expires", time.Unix(fresh.ExpiresAt, 0)).Msg("strava token refreshed")
	return fresh, nil
}
