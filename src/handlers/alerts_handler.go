package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iconzrus/marketplace-helper/backend/src/alerts"
	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

// AlertsHandler serves the alert list and an SSE stream re-evaluated on a
// fixed interval.
type AlertsHandler struct {
	alertService *alerts.Service
	pollInterval time.Duration
}

func NewAlertsHandler(alertService *alerts.Service, pollInterval time.Duration) *AlertsHandler {
	return &AlertsHandler{alertService: alertService, pollInterval: pollInterval}
}

func (h *AlertsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	alertList, err := h.alertService.BuildAlerts()
	if err != nil {
		logger.L.Error("building alerts failed", "error", err)
		utils.SendJSONError(w, "failed to build alerts", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, alertList, http.StatusOK)
}

// HandleStream pushes the alert list as server-sent events until the client
// disconnects.
func (h *AlertsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendJSONError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func() bool {
		alertList, err := h.alertService.BuildAlerts()
		if err != nil {
			logger.L.Error("building alerts for stream failed", "error", err)
			return false
		}
		payload, err := json.Marshal(alertList)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: alerts\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
