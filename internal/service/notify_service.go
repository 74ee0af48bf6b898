package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"carrental/internal/entities"
	"carrental/internal/utils"
)

const (
	ChannelEmailWebhook    = "email_webhook"
	ChannelContractWebhook = "contract_webhook"
	ChannelSendGrid        = "sendgrid"
	ChannelTwilio          = "twilio"
)

var ErrWebhookNotConfigured = errors.New("webhook URL is not configured")

// Notification is everything a channel may need to tell the renter and the
// operator about a recorded reservation.
type Notification struct {
	ReservationID string
	Reservation   entities.Reservation
	Contract      *entities.ContractDocument
	LicenseFront  *entities.Attachment
	LicenseBack   *entities.Attachment
	Timestamp     time.Time
}

// Notifier is one outbound channel. Failures are reported, never retried.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// WebhookNotifier posts a JSON payload to an operator-configured automation endpoint.
type WebhookNotifier struct {
	name    string
	url     string
	client  *http.Client
	payload func(Notification) any
}

func NewEmailWebhook(client *http.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{name: ChannelEmailWebhook, url: url, client: client, payload: confirmationPayload}
}

func NewContractWebhook(client *http.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{name: ChannelContractWebhook, url: url, client: client, payload: contractPayload}
}

func (n *WebhookNotifier) Name() string { return n.name }

func (n *WebhookNotifier) Notify(ctx context.Context, notification Notification) error {
	if n.url == "" {
		return ErrWebhookNotConfigured
	}

	body, err := json.Marshal(n.payload(notification))
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", n.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", n.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", n.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", n.name, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func confirmationPayload(n Notification) any {
	return entities.ConfirmationPayload{
		Type:            entities.PayloadConfirmation,
		ReservationID:   n.ReservationID,
		CustomerEmail:   n.Reservation.Email,
		CustomerName:    n.Reservation.FullName(),
		ReservationData: n.Reservation,
		Timestamp:       n.Timestamp.UTC().Format(time.RFC3339),
	}
}

func contractPayload(n Notification) any {
	payload := entities.ContractPayload{
		Type:            entities.PayloadContract,
		ReservationID:   n.ReservationID,
		CustomerEmail:   n.Reservation.Email,
		CustomerName:    n.Reservation.FullName(),
		ReservationData: n.Reservation,
		Timestamp:       n.Timestamp.UTC().Format(time.RFC3339),
	}
	if n.Contract != nil {
		payload.ContractHTML = n.Contract.HTML
	}
	if !n.LicenseFront.Empty() {
		payload.LicenseFileFront = n.LicenseFront.Base64
		payload.LicenseFileFrontName = n.LicenseFront.Name
		payload.LicenseFileFrontMime = n.LicenseFront.MimeType
	}
	if !n.LicenseBack.Empty() {
		payload.LicenseFileBack = n.LicenseBack.Base64
		payload.LicenseFileBackName = n.LicenseBack.Name
		payload.LicenseFileBackMime = n.LicenseBack.MimeType
	}
	return payload
}

// SendGridMailer emails the renter the contract as a PDF attachment.
type SendGridMailer struct {
	client   *sendgrid.Client
	from     *mail.Email
	composer *SenderService
}

func NewSendGridMailer(apiKey, fromEmail, fromName string, composer *SenderService) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail(fromName, fromEmail),
		composer: composer,
	}
}

func (m *SendGridMailer) Name() string { return ChannelSendGrid }

func (m *SendGridMailer) Notify(ctx context.Context, n Notification) error {
	message, err := m.buildMessage(n)
	if err != nil {
		return err
	}

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", n.Reservation.Email, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (m *SendGridMailer) buildMessage(n Notification) (*mail.SGMailV3, error) {
	email, err := m.composer.ConfirmationEmail(n)
	if err != nil {
		return nil, err
	}

	to := mail.NewEmail(n.Reservation.FullName(), n.Reservation.Email)
	message := mail.NewSingleEmail(m.from, email.Subject, to, email.PlainText, email.HTML)

	if n.Contract != nil && len(n.Contract.PDF) > 0 {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(n.Contract.PDF))
		attachment.SetType("application/pdf")
		attachment.SetFilename(n.Contract.FileName)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}
	return message, nil
}

// TwilioSMS texts the renter a short confirmation.
type TwilioSMS struct {
	from          string
	composer      *SenderService
	createMessage func(*openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

func NewTwilioSMS(accountSID, authToken, fromNumber string, composer *SenderService) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSMS{
		from:          fromNumber,
		composer:      composer,
		createMessage: client.Api.CreateMessage,
	}
}

func (t *TwilioSMS) Name() string { return ChannelTwilio }

func (t *TwilioSMS) Notify(_ context.Context, n Notification) error {
	to, err := utils.NormalizePhoneE164(n.Reservation.Phone)
	if err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(t.composer.ConfirmationSMS(n))

	if _, err := t.createMessage(params); err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	return nil
}
