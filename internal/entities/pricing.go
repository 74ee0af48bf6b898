package entities

const (
	SeasonHigh   = "high"
	SeasonMedium = "medium"
	SeasonLow    = "low"
)

type PriceQuote struct {
	Price            float64 `json:"price"`
	PricePerDay      float64 `json:"pricePerDay"`
	Days             int     `json:"days"`
	Season           string  `json:"season"`
	Explanation      string  `json:"explanation"`
	MarketComparison string  `json:"marketComparison"`
}
