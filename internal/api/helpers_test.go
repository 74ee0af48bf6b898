package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
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
	"carrental/internal/service"
)

const testWebhookSecret = "whsec_api_test"

type stubCompleter struct {
	content string
	err     error
}

func (s *stubCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.content}}},
	}, nil
}

type countingNotifier struct {
	name  string
	mu    sync.Mutex
	calls int
}

func (c *countingNotifier) Name() string { return c.name }

func (c *countingNotifier) Notify(context.Context, service.Notification) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type stubGateway struct{}

func (stubGateway) CreatePaymentIntent(_ context.Context, req entities.PaymentIntentRequest) (*entities.PaymentHandle, error) {
	return &entities.PaymentHandle{ClientSecret: "pi_1_secret", ReservationID: req.ReservationID, PaymentIntentID: "pi_1"}, nil
}

type testServer struct {
	reservations *UserReservationHandler
	webhooks     *StripeWebhookHandler
	repo         repository.ReservationRepository
	email        *countingNotifier
	contract     *countingNotifier
}

func newTestServer(t *testing.T, completer service.ChatCompleter) *testServer {
	t.Helper()
	log := logger.Discard()
	m := metrics.NewNoop()

	contracts, err := service.NewContractService(config.Vehicle{Model: "Peugeot 208"}, func() time.Time {
		return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)

	ts := &testServer{
		repo:     repository.NewMemoryReservationRepository(24*time.Hour, nil),
		email:    &countingNotifier{name: service.ChannelEmailWebhook},
		contract: &countingNotifier{name: service.ChannelContractWebhook},
	}
	dispatcher := service.NewNotificationDispatcher(log, m, ts.email, ts.contract)
	reservations := service.NewReservationService(ts.repo, service.NewReservationValidator(), contracts, dispatcher, stubGateway{}, log, m)

	ts.reservations = NewUserReservationHandler(
		reservations,
		service.NewPricingService(completer, "test-model", log, m),
		service.NewLicenseService(completer, "test-model", log, m),
		log,
		10<<20,
	)
	ts.webhooks = NewStripeWebhookHandler(service.NewStripeService("", testWebhookSecret), reservations, log)
	return ts
}

func reservationForm() map[string]string {
	return map[string]string{
		"firstName":               "Jeanne",
		"lastName":                "Martin",
		"email":                   "jeanne.martin@example.com",
		"phone":                   "06 12 34 56 78",
		"dateOfBirth":             "1990-04-12",
		"address":                 "12 rue de la Paix",
		"city":                    "Paris",
		"postalCode":              "75002",
		"country":                 "France",
		"licenseNumber":           "12AB34567",
		"licenseIssueDate":        "2010-05-20",
		"licenseExpiryDate":       "2030-05-20",
		"licenseIssuingAuthority": "Prefecture de Paris",
		"startDate":               "2024-07-10",
		"endDate":                 "2024-07-12",
		"startTime":               "10:00",
		"endTime":                 "18:00",
		"amount":                  "11000",
		"currency":                "eur",
		"acceptsResponsibility":   "true",
	}
}

type formFile struct {
	field, name, mime string
	content           []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.mime)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
