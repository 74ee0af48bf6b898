package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"carrental/internal/entities"
	"carrental/internal/logger"
	"carrental/internal/metrics"
	"carrental/internal/utils"
)

const (
	DefaultPrice       = 110.0
	MinPrice           = 50.0
	MaxPricePerDay     = 500.0
	defaultExplanation = "Price computed from current market rates"

	pricingTemperature = 0.3
	pricingMaxTokens   = 500
)

var (
	ErrInvalidDates       = errors.New("start and end dates are required (YYYY-MM-DD)")
	ErrPricingUnavailable = errors.New("price estimation is unavailable")
)

// ChatCompleter is the part of the OpenAI client the LLM-backed services use.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds a client for the OpenAI API or a compatible endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

type PricingService struct {
	client  ChatCompleter
	model   string
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewPricingService(client ChatCompleter, model string, log *logger.Logger, m *metrics.Metrics) *PricingService {
	return &PricingService{client: client, model: model, log: log, metrics: m}
}

// RentalDays is the ceiling of the absolute distance between start and end in
// days, never less than one.
func RentalDays(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

func SeasonFor(month time.Month) string {
	switch month {
	case time.June, time.July, time.August:
		return entities.SeasonHigh
	case time.December, time.January, time.February:
		return entities.SeasonMedium
	default:
		return entities.SeasonLow
	}
}

func ClampPrice(price float64, days int) float64 {
	return math.Max(MinPrice, math.Min(price, MaxPricePerDay*float64(days)))
}

// modelQuote mirrors the JSON object the model is asked for. Every field is
// optional.
type modelQuote struct {
	Price            *float64 `json:"price"`
	PricePerDay      *float64 `json:"pricePerDay"`
	Explanation      *string  `json:"explanation"`
	MarketComparison *string  `json:"marketComparison"`
}

// Estimate asks the model for a price and bounds it. When the model cannot be
// reached it returns a default quote together with ErrPricingUnavailable.
func (s *PricingService) Estimate(ctx context.Context, req entities.QuoteRequest) (*entities.PriceQuote, error) {
	if req.StartDate == "" || req.EndDate == "" {
		return nil, ErrInvalidDates
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, ErrInvalidDates
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, ErrInvalidDates
	}

	days := RentalDays(start, end)
	season := SeasonFor(start.Month())
	vehicleType := utils.NormalizeVehicleType(req.VehicleType)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: pricingSystemPrompt(days, season, vehicleType)},
			{Role: openai.ChatMessageRoleUser, Content: pricingUserPrompt(req, days, season, vehicleType)},
		},
		MaxTokens:      pricingMaxTokens,
		Temperature:    pricingTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		s.metrics.UpstreamFailures.WithLabelValues("pricing").Inc()
		s.log.Warn("Price estimation failed, using default price",
			"start_date", req.StartDate,
			"end_date", req.EndDate,
			"error", err,
		)
		return &entities.PriceQuote{
			Price:       DefaultPrice,
			PricePerDay: DefaultPrice,
			Days:        1,
			Season:      season,
			Explanation: defaultExplanation,
		}, fmt.Errorf("%w: %v", ErrPricingUnavailable, err)
	}

	parsed := parseModelQuote(resp)
	if parsed == (modelQuote{}) {
		s.log.Warn("Price estimation returned no usable JSON", "start_date", req.StartDate)
	}

	price := DefaultPrice
	if parsed.Price != nil && *parsed.Price != 0 {
		price = *parsed.Price
	}
	price = ClampPrice(price, days)

	quote := &entities.PriceQuote{
		Price:       price,
		PricePerDay: math.Round(price / float64(days)),
		Days:        days,
		Season:      season,
		Explanation: defaultExplanation,
	}
	if parsed.PricePerDay != nil && *parsed.PricePerDay > 0 {
		quote.PricePerDay = *parsed.PricePerDay
	}
	if parsed.Explanation != nil && strings.TrimSpace(*parsed.Explanation) != "" {
		quote.Explanation = *parsed.Explanation
	}
	if parsed.MarketComparison != nil {
		quote.MarketComparison = *parsed.MarketComparison
	}

	s.log.Info("Price estimated",
		"days", quote.Days,
		"season", quote.Season,
		"price", quote.Price,
	)
	return quote, nil
}

func parseModelQuote(resp openai.ChatCompletionResponse) modelQuote {
	var parsed modelQuote
	if len(resp.Choices) == 0 {
		return parsed
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return modelQuote{}
	}
	return parsed
}

func pricingSystemPrompt(days int, season, vehicleType string) string {
	return fmt.Sprintf(`You are a pricing expert for peer-to-peer car rental in France.
You know the prices charged on Turo, Getaround and similar platforms.

Compute a fair rental price taking into account:
- the rental length (%d day(s))
- the season (%s)
- the vehicle type (%s)
- current market prices on Turo and Getaround

The price must be competitive. In "explanation", write a short, honest and positive message
explaining why this price is attractive compared to the rental platforms.

Reply ONLY with a JSON object of this shape:
{
  "price": number (total in euros, e.g. 110),
  "pricePerDay": number (euros per day),
  "days": number,
  "season": string,
  "explanation": string,
  "marketComparison": string (optional)
}`, days, season, vehicleType)
}

func pricingUserPrompt(req entities.QuoteRequest, days int, season, vehicleType string) string {
	window := fmt.Sprintf("from %s to %s", req.StartDate, req.EndDate)
	if req.StartTime != "" && req.EndTime != "" {
		window = fmt.Sprintf("from %s %s to %s %s", req.StartDate, req.StartTime, req.EndDate, req.EndTime)
	}
	return fmt.Sprintf("Compute the rental price for a period %s (%d day(s)).\nSeason: %s.\nVehicle type: %s.",
		window, days, season, vehicleType)
}
