package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"

	"carrental/internal/entities"
)

var (
	ErrMissingSignature = errors.New("missing Stripe-Signature header")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("webhook event payload is malformed")
)

// PaymentGateway creates the authorization the browser completes interactively.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req entities.PaymentIntentRequest) (*entities.PaymentHandle, error)
}

type StripeService struct {
	webhookSecret string
	newIntent     func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewStripeService sets the package-level Stripe key used by the API resources.
func NewStripeService(secretKey, webhookSecret string) *StripeService {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &StripeService{
		webhookSecret: webhookSecret,
		newIntent:     paymentintent.New,
	}
}

// CreatePaymentIntent tags the intent with the reservation metadata so the
// confirmation callback can be correlated back to it.
func (s *StripeService) CreatePaymentIntent(_ context.Context, req entities.PaymentIntentRequest) (*entities.PaymentHandle, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata(entities.MetadataReservationID, req.ReservationID)
	params.AddMetadata(entities.MetadataCustomerEmail, req.CustomerEmail)
	params.AddMetadata(entities.MetadataCustomerName, req.CustomerName)

	pi, err := s.newIntent(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &entities.PaymentHandle{
		ClientSecret:    pi.ClientSecret,
		ReservationID:   req.ReservationID,
		PaymentIntentID: pi.ID,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header before any field of the
// event is trusted. Only payment_intent.succeeded events carry metadata.
func (s *StripeService) ParseWebhook(payload []byte, signature string) (*entities.PaymentEvent, error) {
	if signature == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &entities.PaymentEvent{
		EventID: event.ID,
		Type:    string(event.Type),
	}
	if result.Type != entities.EventPaymentSucceeded || event.Data == nil {
		return result, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	result.PaymentIntentID = pi.ID
	result.Amount = pi.Amount
	result.Currency = string(pi.Currency)
	result.ReservationID = pi.Metadata[entities.MetadataReservationID]
	result.CustomerEmail = pi.Metadata[entities.MetadataCustomerEmail]
	result.CustomerName = pi.Metadata[entities.MetadataCustomerName]
	if result.CustomerEmail == "" {
		result.CustomerEmail = pi.ReceiptEmail
	}
	return result, nil
}
