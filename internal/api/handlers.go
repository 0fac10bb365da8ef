package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

const dateLayout = "2006-01-02"

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	since := s.now().In(s.loc).AddDate(0, 0, -summaryDays).Format(dateLayout)

	stats, err := s.queries.WeekSummary(ctx, since)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	last, err := s.queries.LastSync(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summary{WeekStats: stats, LastSync: last})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.ActivityFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Type:      q.Get("type"),
		Limit:     defaultActivitiesLimit,
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}
	for _, d := range []string{filter.StartDate, filter.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", "dates must be YYYY-MM-DD")
			return
		}
	}

	items, err := s.queries.ListActivities(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queries.ListWeeklyStats(r.Context(), weeklyStatsLimit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.queries.ListSyncLogs(r.Context(), syncLogsLimit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, report.SyncResponse{
			Status:  report.StatusError,
			Message: "background sync is disabled",
		})
		return
	}

	switch s.syncer.Trigger() {
	case report.SyncStarted:
		writeJSON(w, http.StatusOK, report.SyncResponse{Status: report.SyncStarted, Message: "sync started in the background"})
	default:
		writeJSON(w, http.StatusOK, report.SyncResponse{Status: report.SyncRunning, Message: "a sync is already running"})
	}
}

var csvColumns = []string{
	"id", "date", "type", "name", "duration", "distance", "avg_speed", "avg_hr",
	"avg_power", "normalized_power", "avg_cadence", "tss", "calories", "data",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "Invalid format", "")
		return
	}

	items, err := s.queries.ListActivities(r.Context(), db.ActivityFilter{})
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, items)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=training_data.csv")
	cw := csv.NewWriter(w)
	_ = cw.Write(csvColumns)
	for _, a := range items {
		_ = cw.Write(csvRecord(a))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.Logger.Warn().Err(err).Msg("failed to write csv export")
	}
}

func csvRecord(a activity.Activity) []string {
	return []string{
		a.ID, a.Date, a.Type, a.Name,
		csvFloat(a.Duration), csvFloat(a.Distance), csvFloat(a.AvgSpeed), csvFloat(a.AvgHR),
		csvFloat(a.AvgPower), csvFloat(a.NormalizedPower), csvFloat(a.AvgCadence),
		csvFloat(a.TSS), csvFloat(a.Calories), string(a.Data),
	}
}

// csvFloat leaves unreported metrics empty.
func csvFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
}
