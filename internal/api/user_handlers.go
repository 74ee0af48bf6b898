package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/logger"
	"carrental/internal/service"
)

type UserReservationHandler struct {
	Service   *service.ReservationService
	pricing   *service.PricingService
	licenses  *service.LicenseService
	log       *logger.Logger
	maxMemory int64
}

func NewUserReservationHandler(svc *service.ReservationService, pricing *service.PricingService, licenses *service.LicenseService, log *logger.Logger, maxMemory int64) *UserReservationHandler {
	return &UserReservationHandler{
		Service:   svc,
		pricing:   pricing,
		licenses:  licenses,
		log:       log,
		maxMemory: maxMemory,
	}
}

func (h *UserReservationHandler) CalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req entities.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, toHTTPError(bodyReadError(err, apperrors.InvalidInput("Invalid request body"))))
		return
	}

	quote, err := h.pricing.Estimate(r.Context(), req)
	if errors.Is(err, service.ErrPricingUnavailable) {
		writeJSON(w, http.StatusBadGateway, QuoteFallbackResponse{
			Success: false,
			Error:   "price estimation is temporarily unavailable, a default price was used",
			Code:    apperrors.KindUpstream,
			Price:   quote.Price,
			Days:    quote.Days,
		})
		return
	}
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	writeJSON(w, http.StatusOK, QuoteResponse{Success: true, PriceQuote: quote})
}

func (h *UserReservationHandler) VerifyLicense(w http.ResponseWriter, r *http.Request) {
	form, isForm, err := parseForm(r, h.maxMemory)
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	if !isForm {
		apperrors.WriteError(w, toHTTPError(service.ErrMissingLicenseFaces))
		return
	}

	front, err := readAttachment(form, fieldLicenseFront, aliasLicenseFront)
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	back, err := readAttachment(form, fieldLicenseBack, aliasLicenseBack)
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}

	verdict, err := h.licenses.Verify(r.Context(), front, back, claimedIdentityFromForm(form))
	if errors.Is(err, service.ErrVerificationUnavailable) {
		writeJSON(w, http.StatusBadGateway, VerifyLicenseResponse{
			Success:  false,
			Error:    "license verification is temporarily unavailable",
			Code:     apperrors.KindUpstream,
			Analysis: verdict,
		})
		return
	}
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	writeJSON(w, http.StatusOK, VerifyLicenseResponse{Success: true, Analysis: verdict})
}

func (h *UserReservationHandler) SubmitReservation(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmission(r, h.maxMemory)
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}

	id, err := h.Service.Submit(r.Context(), req)
	if err != nil {
		h.log.Warn("Reservation submission rejected", "error", err)
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	writeJSON(w, http.StatusOK, SubmitReservationResponse{
		Success:       true,
		ReservationID: id,
		Message:       "Reservation recorded. Your contract has been sent by email.",
	})
}

func (h *UserReservationHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmission(r, h.maxMemory)
	if err != nil {
		apperrors.WriteError(w, toHTTPError(err))
		return
	}

	handle, err := h.Service.StartPayment(r.Context(), req)
	if err != nil {
		h.log.Warn("Payment start rejected", "error", err)
		apperrors.WriteError(w, toHTTPError(err))
		return
	}
	writeJSON(w, http.StatusOK, PaymentIntentResponse{
		Success:         true,
		ClientSecret:    handle.ClientSecret,
		ReservationID:   handle.ReservationID,
		PaymentIntentID: handle.PaymentIntentID,
	})
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
