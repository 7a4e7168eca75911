package controller

import (
	"net/http"

	"greenhouse-server/internal/modules/telemetry/service"
	"greenhouse-server/internal/modules/telemetry/types"
)

// StateSource is what the handlers need from the synchronizer.
type StateSource interface {
	Snapshot() service.State
	SeriesFor(sensor string) []types.SeriesPoint
	Select(sensor string) bool
	ClearSelection()
}

type TelemetryController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type telemetryControllerImpl struct {
	source StateSource
}

func NewTelemetryController(source StateSource) TelemetryController {
	return &telemetryControllerImpl{source: source}
}

func (c *telemetryControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/state", c.handleState)
	mux.HandleFunc("GET /api/v1/history", c.handleHistory)
	mux.HandleFunc("GET /api/v1/sensors/{id}/series", c.handleSeries)
	mux.HandleFunc("PUT /api/v1/selection", c.handleSelect)
	mux.HandleFunc("DELETE /api/v1/selection", c.handleClearSelection)
}
