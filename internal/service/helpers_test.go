package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"carrental/internal/config"
	"carrental/internal/entities"
	"carrental/internal/logger"
	"carrental/internal/metrics"
	"carrental/internal/repository"
)

var fixedNow = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

func validReservation() entities.Reservation {
	return entities.Reservation{
		FirstName:               "Jeanne",
		LastName:                "Martin",
		Email:                   "jeanne.martin@example.com",
		Phone:                   "06 12 34 56 78",
		DateOfBirth:             "1990-04-12",
		Address:                 "12 rue de la Paix",
		City:                    "Paris",
		PostalCode:              "75002",
		Country:                 "France",
		LicenseNumber:           "12AB34567",
		LicenseIssueDate:        "2010-05-20",
		LicenseExpiryDate:       "2030-05-20",
		LicenseIssuingAuthority: "Prefecture de Paris",
		StartDate:               "2024-07-10",
		EndDate:                 "2024-07-12",
		StartTime:               "10:00",
		EndTime:                 "18:00",
		Amount:                  11000,
		Currency:                "eur",
		AcceptsResponsibility:   true,
	}
}

func testVehicle() config.Vehicle {
	return config.Vehicle{Model: "Peugeot 208", Plate: "AB-123-CD", OwnerName: "Paul Durand"}
}

// fakeCompleter replays a canned chat completion and records requests.
type fakeCompleter struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
		},
	}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// recordingNotifier captures every notification it is handed.
type recordingNotifier struct {
	name string
	err  error

	mu   sync.Mutex
	seen []Notification
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
	return r.err
}

func (r *recordingNotifier) received() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.seen...)
}

// fakeGateway stands in for the payment processor.
type fakeGateway struct {
	err      error
	requests []entities.PaymentIntentRequest
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req entities.PaymentIntentRequest) (*entities.PaymentHandle, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &entities.PaymentHandle{
		ClientSecret:    "pi_test_secret_abc",
		ReservationID:   req.ReservationID,
		PaymentIntentID: "pi_test",
	}, nil
}

var errUpstreamDown = errors.New("connection refused")

type reservationFixture struct {
	svc      *ReservationService
	repo     repository.ReservationRepository
	email    *recordingNotifier
	contract *recordingNotifier
	gateway  *fakeGateway
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()

	contracts, err := NewContractService(testVehicle(), func() time.Time { return fixedNow })
	require.NoError(t, err)

	f := &reservationFixture{
		repo:     repository.NewMemoryReservationRepository(24*time.Hour, nil),
		email:    &recordingNotifier{name: ChannelEmailWebhook},
		contract: &recordingNotifier{name: ChannelContractWebhook},
		gateway:  &fakeGateway{},
	}
	m := metrics.NewNoop()
	dispatcher := NewNotificationDispatcher(logger.Discard(), m, f.email, f.contract)
	f.svc = NewReservationService(f.repo, NewReservationValidator(), contracts, dispatcher, f.gateway, logger.Discard(), m)
	f.svc.newID = func() string { return "3f2c9a1e-0000-4000-8000-000000000001" }
	return f
}
