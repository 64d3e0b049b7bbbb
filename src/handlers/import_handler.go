package handlers

import (
	"fmt"
	"net/http"

	"github.com/iconzrus/marketplace-helper/backend/src/config"
	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/services"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

type ImportHandler struct {
	importService *services.ImportService
}

func NewImportHandler(importService *services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// HandleImport accepts a multipart upload with the spreadsheet in the
// "file" field. ?dryRun=true validates without writing.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("failed to parse form or file too large (max %d MB)",
			config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, "missing 'file' field in upload", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		utils.SendJSONError(w, fmt.Sprintf("file too large, max %d MB",
			config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	dryRun := queryBool(r, "dryRun", false)
	logger.L.Info("processing cost sheet upload", "filename", fileHeader.Filename, "size", fileHeader.Size, "dryRun", dryRun)

	result, err := h.importService.ImportFromExcel(file, dryRun)
	if err != nil {
		logger.L.Warn("cost sheet import failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("import failed: %v", err), http.StatusBadRequest)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}
