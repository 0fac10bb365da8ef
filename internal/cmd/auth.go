package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/auth"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/spf13/cobra"
)

var (
	clientID     string
	clientSecret string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Strava authorization used by background sync",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize sub5 with Strava in the browser",
	Long: `Authorize sub5 to read your Strava activities.

You need the Client ID and Client Secret of a Strava API application.
Get these from https://www.strava.com/settings/api
Stored credentials are reused unless new ones are given.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Logger
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		sqlDB, queries, err := openQueries(ctx)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		storage := auth.NewStorage(queries, auth.StravaProvider)

		creds, err := storage.Credentials(ctx)
		switch {
		case clientID != "" || clientSecret != "":
			creds = auth.Credentials{ClientID: clientID, ClientSecret: clientSecret}
		case errors.Is(err, auth.ErrNotAuthenticated):
			creds, err = promptForCredentials(cmd.InOrStdin(), out)
			if err != nil {
				return fmt.Errorf("getting credentials: %w", err)
			}
		case err != nil:
			return err
		}
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return errors.New("both --client-id and --client-secret are required")
		}

		fmt.Fprintln(out, "\n=== Strava Authentication ===")
		fmt.Fprintln(out, "A browser window will open for you to authorize this application.")

		tok, err := auth.StravaProvider.Authenticate(ctx, creds, auth.LoginOptions{Out: out})
		if err != nil {
			return fmt.Errorf("OAuth flow failed: %w", err)
		}
		if err := storage.SaveLogin(ctx, creds, tok); err != nil {
			return fmt.Errorf("saving tokens: %w", err)
		}

		expires := time.Unix(tok.ExpiresAt, 0)
		log.Info().Time("expires_at", expires).Msg("OAuth authentication successful")
		fmt.Fprintf(out, "\nAuthentication successful! Token expires: %s\n", expires.Format(time.RFC1123))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Strava credentials and tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sqlDB, queries, err := openQueries(ctx)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := auth.NewStorage(queries, auth.StravaProvider).Delete(ctx); err != nil {
			return fmt.Errorf("removing credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Strava credentials removed.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Strava login is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sqlDB, queries, err := openQueries(ctx)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		out := cmd.OutOrStdout()
		tok, err := auth.NewStorage(queries, auth.StravaProvider).Token(ctx)
		if errors.Is(err, auth.ErrNotAuthenticated) {
			fmt.Fprintln(out, "Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}

		expires := time.Unix(tok.ExpiresAt, 0)
		state := "valid"
		if tok.Expired(time.Now()) {
			state = "expired, refreshed on next sync"
		}
		fmt.Fprintf(out, "Logged in. Access token %s (expires %s).\n", state, expires.Format(time.RFC1123))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&clientID, "client-id", "", "Strava API client ID")
	loginCmd.Flags().StringVar(&clientSecret, "client-secret", "", "Strava API client secret")
	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
	rootCmd.AddCommand(authCmd)
}

// promptForCredentials prompts the user to enter their Strava API credentials
func promptForCredentials(in io.Reader, out io.Writer) (auth.Credentials, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "\n=== Strava API Credentials Required ===")
	fmt.Fprintln(out, "Get your API credentials from: https://www.strava.com/settings/api")
	fmt.Fprintln(out)

	id, err := promptLine(reader, out, "Enter your Client ID: ")
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("reading client ID: %w", err)
	}
	secret, err := promptLine(reader, out, "Enter your Client Secret: ")
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("reading client secret: %w", err)
	}
	return auth.Credentials{ClientID: id, ClientSecret: secret}, nil
}

func promptLine(r *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("value is required")
	}
	return line, nil
}
