package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iconzrus/marketplace-helper/backend/src/analytics"
	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

// AnalyticsHandler serves the reconciled margin report, its CSV extract and
// the validation report.
type AnalyticsHandler struct {
	db     *sql.DB
	engine *analytics.Engine
}

func NewAnalyticsHandler(db *sql.DB, engine *analytics.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, engine: engine}
}

func (h *AnalyticsHandler) loadCatalogs() ([]models.Product, []models.WbProduct, error) {
	products, err := models.GetAllProducts(h.db)
	if err != nil {
		return nil, nil, err
	}
	wbProducts, err := models.GetAllWbProducts(h.db)
	if err != nil {
		return nil, nil, err
	}
	return products, wbProducts, nil
}

func (h *AnalyticsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	products, wbProducts, err := h.loadCatalogs()
	if err != nil {
		logger.L.Error("loading catalogs for report failed", "error", err)
		utils.SendJSONError(w, "failed to load catalogs", http.StatusInternalServerError)
		return
	}

	report := h.engine.BuildReport(products, wbProducts, analytics.ReportOptions{
		IncludeWithoutWb:    queryBool(r, "includeWithoutWb", true),
		MinMarginPercent:    queryDecimal(r, "minMarginPercent"),
		IncludeUnprofitable: queryBool(r, "includeUnprofitable", true),
	})

	w.Header().Set("Cache-Control", "no-cache, private")
	if etag, err := utils.GenerateETag(report); err == nil && etag != "" {
		quoted := fmt.Sprintf("%q", etag)
		w.Header().Set("ETag", quoted)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quoted {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else if err != nil {
		logger.L.Warn("proceeding without ETag for the analytics report", "error", err)
	}

	utils.SendJSON(w, report, http.StatusOK)
}

func (h *AnalyticsHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	products, wbProducts, err := h.loadCatalogs()
	if err != nil {
		logger.L.Error("loading catalogs for export failed", "error", err)
		utils.SendJSONError(w, "failed to load catalogs", http.StatusInternalServerError)
		return
	}

	payload := h.engine.ExportProfitableCSV(products, wbProducts,
		queryBool(r, "includeWithoutWb", true), queryDecimal(r, "minMarginPercent"))

	filename := fmt.Sprintf("profitable-products-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		logger.L.Warn("writing CSV response failed", "error", err)
	}
}

func (h *AnalyticsHandler) HandleValidation(w http.ResponseWriter, r *http.Request) {
	products, wbProducts, err := h.loadCatalogs()
	if err != nil {
		logger.L.Error("loading catalogs for validation failed", "error", err)
		utils.SendJSONError(w, "failed to load catalogs", http.StatusInternalServerError)
		return
	}

	report := h.engine.BuildValidationReport(products, wbProducts,
		queryBool(r, "includeWithoutWb", true), queryDecimal(r, "minMarginPercent"))
	utils.SendJSON(w, report, http.StatusOK)
}
