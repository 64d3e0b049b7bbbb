package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/services"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

// DemoHandler exposes the demo-data helpers. Every route refuses to run
// against live WB data, so mock mode is a hard requirement.
type DemoHandler struct {
	demoService *services.DemoService
	wbAPI       *services.WbAPIService
}

func NewDemoHandler(demoService *services.DemoService, wbAPI *services.WbAPIService) *DemoHandler {
	return &DemoHandler{demoService: demoService, wbAPI: wbAPI}
}

func (h *DemoHandler) requireMockMode(w http.ResponseWriter) bool {
	if !h.wbAPI.MockMode() {
		utils.SendJSONError(w, "demo data operations are only available in mock mode", http.StatusForbidden)
		return false
	}
	return true
}

func (h *DemoHandler) HandleAutoFill(w http.ResponseWriter, r *http.Request) {
	if !h.requireMockMode(w) {
		return
	}
	var req services.AutoFillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.demoService.AutoFillMissingCosts(&req)
	if err != nil {
		logger.L.Error("auto-fill failed", "error", err)
		utils.SendJSONError(w, "failed to auto-fill costs", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *DemoHandler) HandleFillRandom(w http.ResponseWriter, r *http.Request) {
	if !h.requireMockMode(w) {
		return
	}
	affected, err := h.demoService.FillRandomAll()
	if err != nil {
		logger.L.Error("random fill failed", "error", err)
		utils.SendJSONError(w, "failed to fill demo data", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]int{"affected": affected}, http.StatusOK)
}

func (h *DemoHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !h.requireMockMode(w) {
		return
	}
	count := 10
	if c := queryInt(r, "count"); c != nil {
		count = *c
	}
	created, err := h.demoService.GenerateDemo(count)
	if err != nil {
		logger.L.Error("demo generation failed", "error", err)
		utils.SendJSONError(w, "failed to generate demo data", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]int{"created": created}, http.StatusCreated)
}

func (h *DemoHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if !h.requireMockMode(w) {
		return
	}
	deleted, err := h.demoService.DeleteAll()
	if err != nil {
		logger.L.Error("demo deletion failed", "error", err)
		utils.SendJSONError(w, "failed to delete demo data", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]int64{"deleted": deleted}, http.StatusOK)
}
