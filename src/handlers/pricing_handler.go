package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/pricing"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

type PricingHandler struct {
	pricingService *pricing.Service
}

func NewPricingHandler(pricingService *pricing.Service) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

func (h *PricingHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	recommendations, err := h.pricingService.BuildRecommendations(queryDecimal(r, "targetMarginPercent"))
	if err != nil {
		logger.L.Error("building price recommendations failed", "error", err)
		utils.SendJSONError(w, "failed to build recommendations", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, recommendations, http.StatusOK)
}

func (h *PricingHandler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req pricing.BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result := h.pricingService.ApplyBatchUpdate(&req)
	logger.L.Info("batch price update processed",
		"updated", result.Updated, "failed", result.Failed, "dryRun", result.DryRun)
	utils.SendJSON(w, result, http.StatusOK)
}
