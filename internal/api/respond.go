package api

import (
	"encoding/json"
	"net/http"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, report.ErrorResponse{Error: msg, Message: detail})
}
