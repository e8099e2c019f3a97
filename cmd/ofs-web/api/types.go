// Package api provides HTTP API handlers for the filament sensor service.
package api

// ErrorResponse is the response for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UpdateResponse is the response for POST /update_settings.
type UpdateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DiscoverResponse is the response for GET /discover_printer.
type DiscoverResponse struct {
	IP   string `json:"ip"`
	Port int    `json:"port,omitempty"`
	Name string `json:"name,omitempty"`
}

// LogsResponse is the response for GET /api/logs_live.
type LogsResponse struct {
	Logs []string `json:"logs"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Streams int    `json:"streams"`
	Uptime  string `json:"uptime"`
}
