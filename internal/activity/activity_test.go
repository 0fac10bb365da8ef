package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		activityType string
		cycling      bool
		running      bool
	}{
		{activityType: "Cycling", cycling: true},
		{activityType: "indoor_cycling", cycling: true},
		{activityType: "Running", running: true},
		{activityType: "TrailRunning", running: true},
		{activityType: "treadmill_running", running: true},
		{activityType: "swimming"},
		{activityType: ""},
		{activityType: "cycling_and_running", cycling: true, running: true},
	}

	for _, tt := range tests {
		t.Run(tt.activityType, func(t *testing.T) {
			t.Parallel()
			a := Activity{Type: tt.activityType}
			assert.Equal(t, tt.cycling, a.IsCycling())
			assert.Equal(t, tt.running, a.IsRunning())
		})
	}
}

func TestActivityTime(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name    string
		date    string
		want    time.Time
		wantErr error
	}{
		{
			name: "plain date",
			date: "2024-01-15",
			want: time.Date(2024, 1, 15, 0, 0, 0, 0, loc),
		},
		{
			name: "rfc3339 keeps offset",
			date: "2024-01-15T08:30:00Z",
			want: time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "space separated",
			date: "2024-01-15 08:30:00",
			want: time.Date(2024, 1, 15, 8, 30, 0, 0, loc),
		},
		{
			name:    "empty",
			date:    "  ",
			wantErr: ErrMissingDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Activity{Date: tt.date}.Time(loc)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestActivityTimeGarbage(t *testing.T) {
	t.Parallel()

	_, err := Activity{Date: "15/01/2024"}.Time(time.UTC)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingDate)
}

func TestActivityJSONUnmarshal(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": "12345",
		"date": "2024-01-15",
		"type": "road_cycling",
		"name": "Morning Ride",
		"duration": 3725.4,
		"distance": 42195.5,
		"avg_speed": 8.3,
		"avg_hr": 142,
		"avg_power": 210,
		"normalized_power": 225,
		"avg_cadence": 88,
		"tss": 95,
		"calories": 980,
		"data": {"source": "strava"}
	}`

	var a Activity
	require.NoError(t, json.Unmarshal([]byte(payload), &a))

	assert.Equal(t, "12345", a.ID)
	assert.Equal(t, "Morning Ride", a.Name)
	assert.InDelta(t, 42.1955, a.Km(), 1e-9)
	assert.Equal(t, float64(225), a.NormalizedPower)
	assert.True(t, a.IsCycling())
	assert.JSONEq(t, `{"source": "strava"}`, string(a.Data))
}
