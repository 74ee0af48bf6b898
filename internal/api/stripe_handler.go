package api

import (
	"io"
	"net/http"

	apperrors "carrental/internal/errors"
	"carrental/internal/logger"
	"carrental/internal/service"
)

const maxWebhookBodyBytes = int64(65536)

type StripeWebhookHandler struct {
	stripeService      *service.StripeService
	reservationService *service.ReservationService
	log                *logger.Logger
}

func NewStripeWebhookHandler(stripeService *service.StripeService, reservationService *service.ReservationService, log *logger.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		stripeService:      stripeService,
		reservationService: reservationService,
		log:                log,
	}
}

// HandleWebhook acknowledges every authenticated event, whatever happens to
// the notifications, so the processor does not retry.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn("Error reading webhook body", "error", err)
		apperrors.WriteError(w, toHTTPError(bodyReadError(err, apperrors.InvalidInput("could not read request body"))))
		return
	}

	event, err := h.stripeService.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("Webhook signature verification failed", "error", err)
		apperrors.WriteError(w, toHTTPError(err))
		return
	}

	report := h.reservationService.ConfirmPayment(r.Context(), *event)
	h.log.Info("Webhook processed",
		"event_id", event.EventID,
		"type", event.Type,
		"notifications_failed", report.Failed(),
	)
	writeJSON(w, http.StatusOK, WebhookAckResponse{Received: true})
}
