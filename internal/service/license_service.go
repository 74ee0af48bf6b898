package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"carrental/internal/entities"
	"carrental/internal/logger"
	"carrental/internal/metrics"
)

const licenseMaxTokens = 1000

var (
	ErrMissingLicenseFaces     = errors.New("both license faces (front and back) are required")
	ErrVerificationUnavailable = errors.New("license verification is unavailable")
)

// LicenseService asks a vision model for an advisory opinion on an uploaded
// driving license. Its verdict never blocks a reservation.
type LicenseService struct {
	client  ChatCompleter
	model   string
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewLicenseService(client ChatCompleter, model string, log *logger.Logger, m *metrics.Metrics) *LicenseService {
	return &LicenseService{client: client, model: model, log: log, metrics: m}
}

func (s *LicenseService) Verify(ctx context.Context, front, back *entities.Attachment, claimed entities.ClaimedIdentity) (*entities.LicenseVerdict, error) {
	if front.Empty() || back.Empty() {
		return nil, ErrMissingLicenseFaces
	}

	s.log.Info("Verifying license",
		"front", front.Name,
		"back", back.Name,
		"with_comparison", claimed.Provided(),
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: licenseSystemPrompt(claimed)},
			{Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: licenseUserPrompt(claimed)},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: front.DataURL()}},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: back.DataURL()}},
			}},
		},
		MaxTokens:      licenseMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		s.metrics.UpstreamFailures.WithLabelValues("license").Inc()
		s.log.Warn("License verification failed", "error", err)
		return emptyVerdict(), fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}

	verdict := emptyVerdict()
	if len(resp.Choices) > 0 {
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), verdict); err != nil {
			s.log.Warn("License verification returned unparseable output", "error", err)
			verdict = emptyVerdict()
		}
	}
	if verdict.Issues == nil {
		verdict.Issues = []string{}
	}

	s.log.Info("License verified",
		"is_valid", verdict.IsValid,
		"issues", len(verdict.Issues),
	)
	return verdict, nil
}

func emptyVerdict() *entities.LicenseVerdict {
	return &entities.LicenseVerdict{Issues: []string{}}
}

const licenseVerdictShape = `{
  "isValid": boolean,
  "isLicense": boolean,
  "isReadable": boolean,
  "isExpired": boolean,
  "isAuthentic": boolean,
  "facesMatch": boolean,
  "extractedInfo": {
    "firstName": string | null,
    "lastName": string | null,
    "fullName": string | null,
    "licenseNumber": string | null,
    "issueDate": string | null,
    "expiryDate": string | null,
    "country": string | null
  },%s
  "issues": string[],
  "recommendation": string
}`

const licenseComparisonShape = `
  "comparison": {
    "nameMatches": boolean,
    "licenseNumberMatches": boolean,
    "issueDateMatches": boolean,
    "expiryDateMatches": boolean,
    "nameDifference": string | null,
    "licenseNumberDifference": string | null,
    "issueDateDifference": string | null,
    "expiryDateDifference": string | null
  },`

func licenseSystemPrompt(claimed entities.ClaimedIdentity) string {
	var b strings.Builder
	b.WriteString(`You are an expert in driving license verification.
Analyse the front and the back of a driving license and check:
1. That both images are a driving license (front and back)
2. That the information is readable and consistent
3. Whether the license is expired
4. Whether the license looks authentic (no obvious sign of forgery)
5. Whether both faces belong to the same license
`)
	comparison := ""
	if claimed.Provided() {
		b.WriteString("6. Extract full name, license number, issue date and expiry date and compare them with the data supplied by the user.\n\n")
		b.WriteString(claimedBlock(claimed))
		comparison = licenseComparisonShape
	}
	b.WriteString("\nReply in JSON with this structure:\n")
	fmt.Fprintf(&b, licenseVerdictShape, comparison)
	return b.String()
}

func licenseUserPrompt(claimed entities.ClaimedIdentity) string {
	if !claimed.Provided() {
		return "Analyse the front and back of this driving license. Check authenticity, validity and consistency."
	}
	return "Analyse the front and back of this driving license. Check authenticity, validity and consistency.\n\n" +
		claimedBlock(claimed) +
		"\nIf the extracted information does not match exactly, describe the differences in \"comparison\" and add an entry to \"issues\"."
}

func claimedBlock(claimed entities.ClaimedIdentity) string {
	return fmt.Sprintf("User-supplied data:\n- Name: %s %s\n- License number: %s\n- Issue date: %s\n- Expiry date: %s\n",
		claimed.FirstName, claimed.LastName, claimed.LicenseNumber, claimed.IssueDate, claimed.ExpiryDate)
}
