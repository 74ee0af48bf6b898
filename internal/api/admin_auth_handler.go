package api

import (
	"encoding/json"
	"net/http"

	apperrors "carrental/internal/errors"
	"carrental/internal/logger"
	"carrental/internal/service"
)

type AdminAuthHandler struct {
	service service.AdminAuthService
	log     *logger.Logger
}

func NewAdminAuthHandler(svc service.AdminAuthService, log *logger.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{service: svc, log: log}
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		h.log.Warn("Admin login failed", "email", req.Email, "error", err)
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

func (h *AdminAuthHandler) CreateUserAdmin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.CreateAdmin(req.Email, req.Password); err != nil {
		apperrors.WriteError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	h.log.Info("Admin registered", "email", req.Email)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Admin registered successfully"})
}
