package handlers

import (
	"net/http"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/snapshots"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

type SnapshotHandler struct {
	snapshotService *snapshots.Service
}

func NewSnapshotHandler(snapshotService *snapshots.Service) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService}
}

func (h *SnapshotHandler) HandleTake(w http.ResponseWriter, r *http.Request) {
	count, err := h.snapshotService.TakeSnapshot()
	if err != nil {
		logger.L.Error("taking snapshot failed", "error", err)
		utils.SendJSONError(w, "failed to take snapshot", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]int{"saved": count}, http.StatusCreated)
}

func (h *SnapshotHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.snapshotService.History(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		logger.L.Error("loading snapshot history failed", "error", err)
		utils.SendJSONError(w, "failed to load snapshot history", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, history, http.StatusOK)
}

func (h *SnapshotHandler) HandleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.snapshotService.Dates()
	if err != nil {
		logger.L.Error("loading snapshot dates failed", "error", err)
		utils.SendJSONError(w, "failed to load snapshot dates", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, dates, http.StatusOK)
}
