package api

import (
	"errors"
	"io"
	"net/http"

	ofslog "github.com/akrauze/OpenFilamentSensor/pkg/log"
	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
)

// MaxSettingsBody bounds the update request body.
const MaxSettingsBody = 64 << 10

// SettingsAPI handles the settings endpoints.
type SettingsAPI struct {
	store  *settings.Store
	logger ofslog.Logger
}

// NewSettingsAPI creates a new settings API handler.
func NewSettingsAPI(store *settings.Store, logger ofslog.Logger) *SettingsAPI {
	return &SettingsAPI{store: store, logger: ofslog.OrNoop(logger)}
}

// HandleGet handles GET /get_settings.
func (a *SettingsAPI) HandleGet(w http.ResponseWriter, req *http.Request) {
	writeJSONResponse(w, http.StatusOK, a.store.Read())
}

// HandleUpdate handles POST /update_settings. Only keys present in the body
// change; a malformed body changes nothing.
func (a *SettingsAPI) HandleUpdate(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, MaxSettingsBody+1))
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, UpdateResponse{Error: "failed to read body"})
		return
	}
	if len(body) > MaxSettingsBody {
		writeJSONResponse(w, http.StatusRequestEntityTooLarge, UpdateResponse{Error: "settings body too large"})
		return
	}

	if _, err := a.store.MergeJSON(body); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, settings.ErrMalformed) {
			status = http.StatusBadRequest
		}
		ev := ofslog.NewEvent(ofslog.LevelWarning, ofslog.CategorySettings, "settings update rejected: %v", err)
		ev.RemoteAddr = req.RemoteAddr
		a.logger.Log(ev)
		writeJSONResponse(w, status, UpdateResponse{Error: err.Error()})
		return
	}

	writeJSONResponse(w, http.StatusOK, UpdateResponse{Success: true})
}
