package handlers

import (
	"net/http"
	"time"

	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

var startedAt = time.Now()

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]interface{}{
		"status":        "UP",
		"uptimeSeconds": int(time.Since(startedAt).Seconds()),
	}, http.StatusOK)
}

func HandleHello(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]string{"message": "marketplace helper backend"}, http.StatusOK)
}
