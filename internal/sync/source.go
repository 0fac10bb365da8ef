package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/strava"
)

// TokenSource returns a usable Strava access token. *auth.Storage satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StravaSource fetches activities from the Strava API with a fresh token per call.
type StravaSource struct {
	Tokens  TokenSource
	Options strava.Options
}

func (s StravaSource) Activities(ctx context.Context, since time.Time) ([]activity.Activity, error) {
	log := logging.Logger

	token, err := s.Tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting access token: %w", err)
	}

	client := strava.NewClient(token, s.Options)
	if err := client.WaitForRateLimit(ctx); err != nil {
		return nil, err
	}

	items, err := client.FetchActivitiesSince(ctx, since, func(p strava.Page) {
		rl := p.RateLimit
		ev := log.Debug()
		if rl.IsRateLimited {
			ev = log.Info()
		}
		ev.Int("page", p.Number).
			Int("activities_on_page", p.Activities).
			Int("total_fetched", p.TotalFetched).
			Str("15min_usage", fmt.Sprintf("%d/%d", rl.Usage15Min, rl.Limit15Min)).
			Str("daily_usage", fmt.Sprintf("%d/%d", rl.UsageDaily, rl.LimitDaily)).
			Msg("strava fetch progress")
	})
	if err != nil {
		return nil, err
	}

	records := make([]activity.Activity, 0, len(items))
	for _, a := range items {
		records = append(records, a.Record())
	}
	return records, nil
}
