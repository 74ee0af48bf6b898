package service

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"carrental/internal/entities"
)

// webhookRecorder is an httptest endpoint that keeps the last body it received.
type webhookRecorder struct {
	mu     sync.Mutex
	status int
	bodies [][]byte
}

func (w *webhookRecorder) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.mu.Lock()
	w.bodies = append(w.bodies, body)
	status := w.status
	w.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	rw.WriteHeader(status)
	_, _ = rw.Write([]byte("accepted"))
}

func (w *webhookRecorder) last(t *testing.T, v any) {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotEmpty(t, w.bodies)
	require.NoError(t, json.Unmarshal(w.bodies[len(w.bodies)-1], v))
}

func testNotification(t *testing.T) Notification {
	t.Helper()
	contracts, err := NewContractService(testVehicle(), func() time.Time { return fixedNow })
	require.NoError(t, err)

	res := validReservation()
	doc, err := contracts.Render(res, "res-1")
	require.NoError(t, err)

	front, back := licenseFaces()
	return Notification{
		ReservationID: "res-1",
		Reservation:   res,
		Contract:      doc,
		LicenseFront:  front,
		LicenseBack:   back,
		Timestamp:     fixedNow,
	}
}

func TestWebhookNotifier(t *testing.T) {
	n := testNotification(t)

	t.Run("confirmation payload", func(t *testing.T) {
		rec := &webhookRecorder{}
		srv := httptest.NewServer(rec)
		defer srv.Close()

		require.NoError(t, NewEmailWebhook(srv.Client(), srv.URL).Notify(testContext(t), n))

		var payload entities.ConfirmationPayload
		rec.last(t, &payload)
		assert.Equal(t, entities.PayloadConfirmation, payload.Type)
		assert.Equal(t, "res-1", payload.ReservationID)
		assert.Equal(t, "jeanne.martin@example.com", payload.CustomerEmail)
		assert.Equal(t, "Jeanne Martin", payload.CustomerName)
		assert.Equal(t, n.Reservation, payload.ReservationData)
		assert.Equal(t, "2024-07-01T09:30:00Z", payload.Timestamp)
	})

	t.Run("contract payload carries the document and both faces", func(t *testing.T) {
		rec := &webhookRecorder{}
		srv := httptest.NewServer(rec)
		defer srv.Close()

		require.NoError(t, NewContractWebhook(srv.Client(), srv.URL).Notify(testContext(t), n))

		var payload entities.ContractPayload
		rec.last(t, &payload)
		assert.Equal(t, entities.PayloadContract, payload.Type)
		assert.Equal(t, n.Contract.HTML, payload.ContractHTML)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("front-bytes")), payload.LicenseFileFront)
		assert.Equal(t, "front.jpg", payload.LicenseFileFrontName)
		assert.Equal(t, "image/jpeg", payload.LicenseFileFrontMime)
		assert.Equal(t, "back.png", payload.LicenseFileBackName)
		assert.Equal(t, "image/png", payload.LicenseFileBackMime)
	})

	t.Run("contract payload without license images", func(t *testing.T) {
		rec := &webhookRecorder{}
		srv := httptest.NewServer(rec)
		defer srv.Close()

		bare := n
		bare.LicenseFront, bare.LicenseBack = nil, nil
		require.NoError(t, NewContractWebhook(srv.Client(), srv.URL).Notify(testContext(t), bare))

		var raw map[string]any
		rec.last(t, &raw)
		assert.NotContains(t, raw, "licenseFileFrontBase64")
		assert.NotContains(t, raw, "licenseFileBackBase64")
	})

	t.Run("non-2xx is a failure", func(t *testing.T) {
		srv := httptest.NewServer(&webhookRecorder{status: http.StatusInternalServerError})
		defer srv.Close()

		err := NewEmailWebhook(srv.Client(), srv.URL).Notify(testContext(t), n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("missing URL", func(t *testing.T) {
		err := NewContractWebhook(http.DefaultClient, "").Notify(testContext(t), n)
		assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	})
}

func TestSendGridMailer_BuildMessage(t *testing.T) {
	sender, err := NewSenderService("Peugeot 208")
	require.NoError(t, err)
	mailer := NewSendGridMailer("SG.test", "bookings@example.com", "Car Rental", sender)
	n := testNotification(t)

	message, err := mailer.buildMessage(n)
	require.NoError(t, err)

	assert.Equal(t, "Your car rental reservation is confirmed - Code: res-1", message.Subject)
	require.Len(t, message.Personalizations, 1)
	require.Len(t, message.Personalizations[0].To, 1)
	assert.Equal(t, "jeanne.martin@example.com", message.Personalizations[0].To[0].Address)

	require.Len(t, message.Attachments, 1)
	attachment := message.Attachments[0]
	assert.Equal(t, "rental-contract-res-1.pdf", attachment.Filename)
	assert.Equal(t, "application/pdf", attachment.Type)
	pdf, err := base64.StdEncoding.DecodeString(attachment.Content)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestTwilioSMS_Notify(t *testing.T) {
	sender, err := NewSenderService("Peugeot 208")
	require.NoError(t, err)

	var sent *openapi.CreateMessageParams
	sms := &TwilioSMS{
		from:     "+15005550006",
		composer: sender,
		createMessage: func(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
			sent = params
			return &openapi.ApiV2010Message{}, nil
		},
	}

	n := testNotification(t)
	n.ReservationID = "3f2c9a1e-0000-4000-8000-000000000001"
	require.NoError(t, sms.Notify(testContext(t), n))

	require.NotNil(t, sent)
	assert.Equal(t, "+33612345678", *sent.To)
	assert.Equal(t, "+15005550006", *sent.From)
	assert.True(t, strings.HasPrefix(*sent.Body, "Car Rental: reservation 3f2c9a1e confirmed!"))
	assert.Contains(t, *sent.Body, "10/07/2024 10:00")

	t.Run("unusable phone number", func(t *testing.T) {
		sent = nil
		bad := n
		bad.Reservation.Phone = "12345"
		assert.Error(t, sms.Notify(testContext(t), bad))
		assert.Nil(t, sent)
	})
}
