package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
	"github.com/iconzrus/marketplace-helper/backend/src/services"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

// WbProductHandler serves the synced WB catalog and the WB API passthrough
// endpoints.
type WbProductHandler struct {
	db       *sql.DB
	wbAPI    *services.WbAPIService
	wbStatus *services.WbStatusService
}

func NewWbProductHandler(db *sql.DB, wbAPI *services.WbAPIService, wbStatus *services.WbStatusService) *WbProductHandler {
	return &WbProductHandler{db: db, wbAPI: wbAPI, wbStatus: wbStatus}
}

func (h *WbProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		products []models.WbProduct
		err      error
	)
	switch {
	case query.Get("search") != "":
		products, err = models.SearchWbProductsByName(h.db, query.Get("search"))
	case query.Get("brand") != "":
		products, err = models.GetWbProductsByBrand(h.db, query.Get("brand"))
	case query.Get("category") != "":
		products, err = models.GetWbProductsByCategory(h.db, query.Get("category"))
	case query.Get("subject") != "":
		products, err = models.GetWbProductsBySubject(h.db, query.Get("subject"))
	case queryInt(r, "lowStockThreshold") != nil:
		products, err = models.GetLowStockWbProducts(h.db, *queryInt(r, "lowStockThreshold"))
	default:
		products, err = models.GetAllWbProducts(h.db)
	}
	if err != nil {
		logger.L.Error("listing wb products failed", "error", err)
		utils.SendJSONError(w, "failed to list wb products", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.WbProduct{}
	}
	utils.SendJSON(w, products, http.StatusOK)
}

func (h *WbProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	product, err := models.GetWbProductByID(h.db, id)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "wb product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, "failed to load wb product", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, product, http.StatusOK)
}

func (h *WbProductHandler) HandleGetByNmID(w http.ResponseWriter, r *http.Request) {
	nmID, err := strconv.ParseInt(r.PathValue("nmId"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid nmId", http.StatusBadRequest)
		return
	}
	product, err := models.GetWbProductByNmID(h.db, nmID)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "wb product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, "failed to load wb product", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, product, http.StatusOK)
}

func (h *WbProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = models.DeleteWbProduct(h.db, id)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "wb product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, "failed to delete wb product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WbProductHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	payload, err := h.wbAPI.Ping(r.Context())
	if err != nil {
		logger.L.Error("WB API ping failed", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, payload, http.StatusOK)
}

func (h *WbProductHandler) HandleSellerInfo(w http.ResponseWriter, r *http.Request) {
	payload, err := h.wbAPI.SellerInfo(r.Context())
	if err != nil {
		logger.L.Error("fetching seller info failed", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, payload, http.StatusOK)
}

func (h *WbProductHandler) HandleGoods(w http.ResponseWriter, r *http.Request) {
	filter := &services.GoodsFilter{
		Name:              r.URL.Query().Get("name"),
		Vendor:            r.URL.Query().Get("vendor"),
		Brand:             r.URL.Query().Get("brand"),
		Category:          r.URL.Query().Get("category"),
		Subject:           r.URL.Query().Get("subject"),
		MinPrice:          queryDecimal(r, "minPrice"),
		MaxPrice:          queryDecimal(r, "maxPrice"),
		MinDiscount:       queryInt(r, "minDiscount"),
		LowStockThreshold: queryInt(r, "lowStockThreshold"),
	}
	goods, err := h.wbAPI.GoodsFiltered(r.Context(), filter)
	if err != nil {
		logger.L.Error("fetching goods failed", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, goods, http.StatusOK)
}

func (h *WbProductHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.wbAPI.Sync(r.Context())
	if err != nil {
		logger.L.Error("WB catalog sync failed", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *WbProductHandler) HandleGetMockMode(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]bool{
		"mockMode":        h.wbAPI.MockMode(),
		"tokenConfigured": h.wbAPI.HasToken(),
	}, http.StatusOK)
}

func (h *WbProductHandler) HandleSetMockMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MockMode bool `json:"mockMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.wbAPI.SetMockMode(req.MockMode)
	utils.SendJSON(w, map[string]bool{"mockMode": req.MockMode}, http.StatusOK)
}

func (h *WbProductHandler) HandleSetToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.wbAPI.SetToken(req.Token)
	utils.SendJSON(w, map[string]bool{"tokenConfigured": h.wbAPI.HasToken()}, http.StatusOK)
}

func (h *WbProductHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, h.wbStatus.CheckAll(r.Context()), http.StatusOK)
}
