package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/security"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

type AuthHandler struct {
	authService *security.AuthService
}

func NewAuthHandler(authService *security.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		logger.L.Warn("login rejected", "username", req.Username)
		utils.SendJSONError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}
	utils.SendJSON(w, map[string]string{"token": token, "username": req.Username}, http.StatusOK)
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		h.authService.Logout(token)
	}
	utils.SendJSON(w, map[string]string{"status": "logged out"}, http.StatusOK)
}
