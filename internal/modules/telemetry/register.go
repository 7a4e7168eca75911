package telemetry

import (
	"net/http"

	"greenhouse-server/internal/modules/telemetry/controller"
	"greenhouse-server/internal/modules/telemetry/service"
)

func RegisterFeature(mux *http.ServeMux, synchronizer *service.Synchronizer) {
	telemetryController := controller.NewTelemetryController(synchronizer)
	telemetryController.RegisterRoutes(mux)
}
