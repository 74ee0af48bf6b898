package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"carrental/internal/auth"
	apperrors "carrental/internal/errors"
	"carrental/internal/logger"
	"carrental/internal/service"
)

type AdminHandler struct {
	Service *service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(svc *service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, log: log}
}

func (h *AdminHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	reservation, err := h.Service.GetReservation(r.Context(), id)
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *AdminHandler) AdminDeleteReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.DeleteReservation(r.Context(), id); err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	h.log.Info("Reservation deleted by admin", "reservation_id", id, "admin", auth.AdminEmail(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Service.Sweep(r.Context())
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	h.log.Info("Store swept by admin", "removed", removed, "admin", auth.AdminEmail(r.Context()))
	writeJSON(w, http.StatusOK, SweepResponse{Success: true, Removed: removed})
}
