package api

import (
	"net/http"

	"github.com/akrauze/OpenFilamentSensor/pkg/version"
)

// VersionAPI handles GET /version.
type VersionAPI struct {
	describer *version.Describer
}

// NewVersionAPI creates a new version API handler.
func NewVersionAPI(describer *version.Describer) *VersionAPI {
	return &VersionAPI{describer: describer}
}

// HandleVersion handles GET /version.
func (a *VersionAPI) HandleVersion(w http.ResponseWriter, req *http.Request) {
	writeJSONResponse(w, http.StatusOK, a.describer.Describe())
}
