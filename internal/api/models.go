package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/repository"
	"carrental/internal/service"
)

// Price quote
type QuoteResponse struct {
	Success bool `json:"success"`
	*entities.PriceQuote
}

type QuoteFallbackResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Code    string  `json:"code"`
	Price   float64 `json:"price"`
	Days    int     `json:"days"`
}

// License verification
type VerifyLicenseResponse struct {
	Success  bool                     `json:"success"`
	Error    string                   `json:"error,omitempty"`
	Code     string                   `json:"code,omitempty"`
	Analysis *entities.LicenseVerdict `json:"analysis"`
}

// Reservation
type SubmitReservationResponse struct {
	Success       bool   `json:"success"`
	ReservationID string `json:"reservationId"`
	Message       string `json:"message"`
}

type PaymentIntentResponse struct {
	Success         bool   `json:"success"`
	ClientSecret    string `json:"clientSecret"`
	ReservationID   string `json:"reservationId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

// Admin
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SweepResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// toHTTPError maps service failures onto the public error taxonomy. Causes
// stay attached for logging but only the message reaches the client.
func toHTTPError(err error) error {
	var (
		verr    *service.ValidationError
		formErr *FormError
	)
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return apperrors.PayloadTooLarge(ErrBodyTooLarge.Error())
	case errors.As(err, &formErr):
		return apperrors.InvalidInput(formErr.Error()).WithDetails(map[string]any{formErr.Field: formErr.Message})
	case errors.As(err, &verr):
		return apperrors.Validation("reservation is invalid", verr.Details())
	case errors.Is(err, service.ErrMissingLicenseFaces),
		errors.Is(err, service.ErrInvalidDates):
		return apperrors.InvalidInput(rootMessage(err))
	case errors.Is(err, service.ErrMissingSignature),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrMalformedEvent):
		return apperrors.InvalidInput(rootMessage(err))
	case errors.Is(err, service.ErrAmountOutOfBounds):
		return apperrors.Validation(service.ErrAmountOutOfBounds.Error(), nil)
	case errors.Is(err, service.ErrPaymentUnavailable):
		return apperrors.Upstream("could not create payment", err)
	case errors.Is(err, service.ErrReservationNotRecorded):
		return apperrors.Internal("could not record reservation", err)
	case errors.Is(err, repository.ErrReservationNotFound):
		return apperrors.NotFound("reservation")
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAdminDisabled):
		return apperrors.Unauthorized("invalid credentials")
	default:
		return err
	}
}

func rootMessage(err error) string {
	for _, sentinel := range []error{
		service.ErrMissingLicenseFaces,
		service.ErrInvalidDates,
		service.ErrMissingSignature,
		service.ErrInvalidSignature,
		service.ErrMalformedEvent,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
