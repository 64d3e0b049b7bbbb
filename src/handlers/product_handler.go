package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

// ProductHandler serves the locally curated cost sheet.
type ProductHandler struct {
	db                *sql.DB
	lowStockThreshold int
}

func NewProductHandler(db *sql.DB, lowStockThreshold int) *ProductHandler {
	return &ProductHandler{db: db, lowStockThreshold: lowStockThreshold}
}

func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		products []models.Product
		err      error
	)
	switch {
	case query.Get("search") != "":
		products, err = models.SearchProductsByName(h.db, query.Get("search"))
	case query.Get("category") != "":
		products, err = models.GetProductsByCategory(h.db, query.Get("category"))
	case query.Get("brand") != "":
		products, err = models.GetProductsByBrand(h.db, query.Get("brand"))
	default:
		products, err = models.GetAllProducts(h.db)
	}
	if err != nil {
		logger.L.Error("listing products failed", "error", err)
		utils.SendJSONError(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	utils.SendJSON(w, products, http.StatusOK)
}

func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	product, err := models.GetProductByID(h.db, id)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("loading product failed", "id", id, "error", err)
		utils.SendJSONError(w, "failed to load product", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, product, http.StatusOK)
}

func (h *ProductHandler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.lowStockThreshold
	if t := queryInt(r, "threshold"); t != nil {
		threshold = *t
	}
	products, err := models.GetLowStockProducts(h.db, threshold)
	if err != nil {
		logger.L.Error("low stock query failed", "error", err)
		utils.SendJSONError(w, "failed to list low stock products", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	utils.SendJSON(w, products, http.StatusOK)
}

func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	product.ID = 0
	if product.Name == "" {
		utils.SendJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	if !product.Price.IsPositive() {
		utils.SendJSONError(w, "price must be positive", http.StatusBadRequest)
		return
	}
	saved, err := models.SaveProduct(h.db, &product)
	if err != nil {
		logger.L.Error("creating product failed", "error", err)
		utils.SendJSONError(w, "failed to create product", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, saved, http.StatusCreated)
}

func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	existing, err := models.GetProductByID(h.db, id)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, "failed to load product", http.StatusInternalServerError)
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	saved, err := models.SaveProduct(h.db, &product)
	if err != nil {
		logger.L.Error("updating product failed", "id", id, "error", err)
		utils.SendJSONError(w, "failed to update product", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, saved, http.StatusOK)
}

// HandleUpdateCosts patches only the four cost fields. An explicit null
// clears a field.
func (h *ProductHandler) HandleUpdateCosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		PurchasePrice *decimal.Decimal `json:"purchasePrice"`
		LogisticsCost *decimal.Decimal `json:"logisticsCost"`
		MarketingCost *decimal.Decimal `json:"marketingCost"`
		OtherExpenses *decimal.Decimal `json:"otherExpenses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err = models.UpdateProductCosts(h.db, id, req.PurchasePrice, req.LogisticsCost, req.MarketingCost, req.OtherExpenses)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("updating product costs failed", "id", id, "error", err)
		utils.SendJSONError(w, "failed to update costs", http.StatusInternalServerError)
		return
	}
	product, err := models.GetProductByID(h.db, id)
	if err != nil {
		utils.SendJSONError(w, "failed to reload product", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, product, http.StatusOK)
}

func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = models.DeleteProduct(h.db, id)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("deleting product failed", "id", id, "error", err)
		utils.SendJSONError(w, "failed to delete product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
