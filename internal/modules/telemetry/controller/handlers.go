package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"greenhouse-server/internal/modules/telemetry/types"
	"greenhouse-server/internal/utils"
)

// stateResponse is the dashboard's one-shot view of the sync state.
type stateResponse struct {
	Readings   []types.Reading `json:"readings"`
	Offline    bool            `json:"offline"`
	Loading    bool            `json:"loading"`
	CapturedAt *time.Time      `json:"capturedAt,omitempty"`
	Selection  *types.Reading  `json:"selection"`
}

func (c *telemetryControllerImpl) handleState(w http.ResponseWriter, r *http.Request) {
	st := c.source.Snapshot()

	resp := stateResponse{
		Readings:  st.Readings,
		Offline:   st.Offline,
		Loading:   st.Loading,
		Selection: st.SelectedReading(),
	}
	if resp.Readings == nil {
		resp.Readings = []types.Reading{}
	}
	if !st.CapturedAt.IsZero() {
		capturedAt := st.CapturedAt
		resp.CapturedAt = &capturedAt
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (c *telemetryControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	st := c.source.Snapshot()
	history := st.History
	if history == nil {
		history = []types.HistoryEntry{}
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

func (c *telemetryControllerImpl) handleSeries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing sensor id")
		return
	}
	utils.WriteJSON(w, http.StatusOK, c.source.SeriesFor(id))
}

type selectionRequest struct {
	Sensor string `json:"sensor"`
}

func (c *telemetryControllerImpl) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid body (expected {\"sensor\": ...})")
		return
	}
	if req.Sensor == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing sensor")
		return
	}
	if !c.source.Select(req.Sensor) {
		utils.WriteError(w, http.StatusNotFound, "unknown sensor")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"selection": req.Sensor})
}

func (c *telemetryControllerImpl) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	c.source.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}
