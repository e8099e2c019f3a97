package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	ofslog "github.com/akrauze/OpenFilamentSensor/pkg/log"
	"github.com/akrauze/OpenFilamentSensor/pkg/status"
	"github.com/akrauze/OpenFilamentSensor/pkg/stream"
)

// StatusAPI handles the poll and stream status endpoints.
type StatusAPI struct {
	publisher *stream.Publisher
	logger    ofslog.Logger
}

// NewStatusAPI creates a new status API handler.
func NewStatusAPI(publisher *stream.Publisher, logger ofslog.Logger) *StatusAPI {
	return &StatusAPI{publisher: publisher, logger: ofslog.OrNoop(logger)}
}

// HandleSensorStatus handles GET /sensor_status.
func (a *StatusAPI) HandleSensorStatus(w http.ResponseWriter, req *http.Request) {
	writeJSONResponse(w, http.StatusOK, a.publisher.Poll())
}

// HandleStatusEvents handles GET /status_events (Server-Sent Events).
// One snapshot is sent immediately, then one per refresh interval until
// the client disconnects.
func (a *StatusAPI) HandleStatusEvents(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Emissions run on the stream's timer goroutine; the handler only
	// waits, so writes to w never overlap.
	h := a.publisher.Open(func(snap status.Snapshot) error {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}, nil)
	defer h.Close()

	ev := ofslog.NewEvent(ofslog.LevelDebug, ofslog.CategoryStream, "status stream attached")
	ev.StreamID = h.ID()
	ev.RemoteAddr = req.RemoteAddr
	a.logger.Log(ev)

	select {
	case <-req.Context().Done():
	case <-h.Done():
	}
}
