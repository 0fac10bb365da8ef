package db

import (
	"context"
	"database/sql"
)

// AuthConfig is the single stored set of Strava API credentials.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  sql.NullString
	RefreshToken sql.NullString
	ExpiresAt    sql.NullInt64
	UpdatedAt    string
}

func (q *Queries) GetAuthConfig(ctx context.Context) (AuthConfig, error) {
	var c AuthConfig
	err := q.db.QueryRowContext(ctx,
		`SELECT client_id, client_secret, access_token, refresh_token, expires_at, updated_at
		FROM auth_config WHERE id = 1`,
	).Scan(&c.ClientID, &c.ClientSecret, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.UpdatedAt)
	return c, err
}

type SaveAuthConfigParams struct {
	ClientID     string
	ClientSecret string
	AccessToken  sql.NullString
	RefreshToken sql.NullString
	ExpiresAt    sql.NullInt64
}

func (q *Queries) SaveAuthConfig(ctx context.Context, arg SaveAuthConfigParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO auth_config (id, client_id, client_secret, access_token, refresh_token, expires_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			client_id = excluded.client_id,
			client_secret = excluded.client_secret,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		arg.ClientID, arg.ClientSecret, arg.AccessToken, arg.RefreshToken, arg.ExpiresAt,
	)
	return err
}

type UpdateTokensParams struct {
	AccessToken  sql.NullString
	RefreshToken sql.NullString
	ExpiresAt    sql.NullInt64
}

func (q *Queries) UpdateTokens(ctx context.Context, arg UpdateTokensParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE auth_config SET
			access_token = ?,
			refresh_token = ?,
			expires_at = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = 1`,
		arg.AccessToken, arg.RefreshToken, arg.ExpiresAt,
	)
	return err
}

func (q *Queries) DeleteAuthConfig(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM auth_config WHERE id = 1")
	return err
}
