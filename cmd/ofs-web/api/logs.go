package api

import (
	"net/http"
	"strings"

	ofslog "github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// LogsAPI serves the recent event log.
type LogsAPI struct {
	events *ofslog.MemoryLogger
}

// NewLogsAPI creates a new logs API handler.
func NewLogsAPI(events *ofslog.MemoryLogger) *LogsAPI {
	return &LogsAPI{events: events}
}

// HandleLive handles GET /api/logs_live.
func (a *LogsAPI) HandleLive(w http.ResponseWriter, req *http.Request) {
	lines := a.events.Lines()
	if lines == nil {
		lines = []string{}
	}
	writeJSONResponse(w, http.StatusOK, LogsResponse{Logs: lines})
}

// HandleText handles GET /api/logs_text.
func (a *LogsAPI) HandleText(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(strings.Join(a.events.Lines(), "\n")))
}
