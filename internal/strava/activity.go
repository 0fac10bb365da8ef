package strava

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
)

// Activity is a summary activity from GET /athlete/activities.
type Activity struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Distance             float64   `json:"distance"`
	MovingTime           int       `json:"moving_time"`
	ElapsedTime          int       `json:"elapsed_time"`
	TotalElevationGain   float64   `json:"total_elevation_gain"`
	Type                 string    `json:"type"`
	SportType            string    `json:"sport_type"`
	StartDate            time.Time `json:"start_date"`
	StartDateLocal       time.Time `json:"start_date_local"`
	Timezone             string    `json:"timezone"`
	AverageSpeed         float64   `json:"average_speed"`
	MaxSpeed             float64   `json:"max_speed"`
	AverageCadence       float64   `json:"average_cadence"`
	AverageHeartrate     float64   `json:"average_heartrate"`
	MaxHeartrate         float64   `json:"max_heartrate"`
	AverageWatts         float64   `json:"average_watts"`
	WeightedAverageWatts float64   `json:"weighted_average_watts"`
	Kilojoules           float64   `json:"kilojoules"`
	SufferScore          float64   `json:"suffer_score"`
}

// sportLabels maps Strava sport types to the stored activity type. Every
// ride maps to a label containing "cycling" and every run to one containing
// "running"; other sports are snake_cased.
var sportLabels = map[string]string{
	"Ride":              "cycling",
	"VirtualRide":       "virtual_cycling",
	"MountainBikeRide":  "mountain_cycling",
	"GravelRide":        "gravel_cycling",
	"EBikeRide":         "e_cycling",
	"EMountainBikeRide": "e_mountain_cycling",
	"Velomobile":        "velomobile_cycling",
	"Handcycle":         "hand_cycling",
	"Run":               "running",
	"TrailRun":          "trail_running",
	"VirtualRun":        "virtual_running",
}

// SportLabel returns the stored activity type for a Strava sport type.
func SportLabel(sportType string) string {
	if label, ok := sportLabels[sportType]; ok {
		return label
	}
	return snakeCase(sportType)
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// extra is kept in the record's data column.
type extra struct {
	SportType          string  `json:"sport_type"`
	ElapsedTime        int     `json:"elapsed_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	MaxSpeed           float64 `json:"max_speed"`
	MaxHeartrate       float64 `json:"max_heartrate"`
	Kilojoules         float64 `json:"kilojoules"`
	StartDate          string  `json:"start_date"`
	Timezone           string  `json:"timezone"`
}

// Record converts a to the stored activity. The date is the local start
// day; calories are estimated from kilojoules of work when Strava reports it.
func (a Activity) Record() activity.Activity {
	sport := a.SportType
	if sport == "" {
		sport = a.Type
	}

	data, _ := json.Marshal(extra{
		SportType:          sport,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		MaxSpeed:           a.MaxSpeed,
		MaxHeartrate:       a.MaxHeartrate,
		Kilojoules:         a.Kilojoules,
		StartDate:          a.StartDate.UTC().Format(time.RFC3339),
		Timezone:           a.Timezone,
	})

	return activity.Activity{
		ID:              strconv.FormatInt(a.ID, 10),
		Date:            a.StartDateLocal.Format("2006-01-02"),
		Type:            SportLabel(sport),
		Name:            a.Name,
		Duration:        float64(a.MovingTime),
		Distance:        a.Distance,
		AvgSpeed:        a.AverageSpeed,
		AvgHR:           a.AverageHeartrate,
		AvgPower:        a.AverageWatts,
		NormalizedPower: a.WeightedAverageWatts,
		AvgCadence:      a.AverageCadence,
		TSS:             a.SufferScore,
		Calories:        a.Kilojoules,
		Data:            data,
	}
}
