package domain

import "time"

// AnalystRating is a single rating action, filtered to the last 24 months
// by ContextSensor (spec.md §4.6).
type AnalystRating struct {
	Firm        string    `json:"firm"`
	Action      string    `json:"action"` // Upgrade, Downgrade, Initiate, Maintain
	Rating      string    `json:"rating"`
	PriceTarget *float64  `json:"price_target"`
	Date        time.Time `json:"date"`
}

// ConsensusBucket summarizes analyst ratings into a single bucket label.
type ConsensusBucket string

const (
	ConsensusStrongBuy ConsensusBucket = "STRONG_BUY"
	ConsensusBuy       ConsensusBucket = "BUY"
	ConsensusHold      ConsensusBucket = "HOLD"
	ConsensusSell      ConsensusBucket = "SELL"
	ConsensusStrongSell ConsensusBucket = "STRONG_SELL"
	ConsensusNone      ConsensusBucket = "NONE"
)

// EarningsEvent is the next scheduled earnings date, if known.
type EarningsEvent struct {
	Date *time.Time `json:"earnings_date"`
}

// InsiderTransactionType distinguishes buy/sell insider activity.
type InsiderTransactionType string

const (
	InsiderBuy  InsiderTransactionType = "Buy"
	InsiderSell InsiderTransactionType = "Sell"
)

// InsiderTrade is a single Form-4-style filing, materiality-filtered by
// ContextSensor (value >= $100k OR shares >= 5000; spec.md §4.6).
type InsiderTrade struct {
	Insider         string                  `json:"insider"`
	TransactionType InsiderTransactionType  `json:"transaction_type"`
	Shares          float64                 `json:"shares"`
	Value           float64                 `json:"value"`
	Date            time.Time               `json:"date"`
}

// OptionSentiment is the options-microstructure read.
type OptionSentiment struct {
	PutCallRatio      *float64 `json:"put_call_ratio"`
	ImpliedVolatility *float64 `json:"implied_volatility"`
	OpenInterestWalls []float64 `json:"oi_walls"`
	Label             string   `json:"label,omitempty"` // "High Compression" etc.
}

// MarketContext is the output of ContextSensor (spec.md §4.6).
type MarketContext struct {
	Ticker          string            `json:"ticker"`
	AnalystRatings  []AnalystRating   `json:"analyst_ratings"`
	PriceTargetMean *float64          `json:"price_target_mean"`
	Consensus       ConsensusBucket   `json:"consensus"`
	Events          *EarningsEvent    `json:"events"`
	InsiderActivity []InsiderTrade    `json:"insider_activity"`
	OptionSentiment *OptionSentiment  `json:"option_sentiment"`
	FetchedAt       time.Time         `json:"fetched_at"`
}

// DaysToEarnings returns the signed day count to Events.Date relative to
// `now`, or nil when no earnings date is known.
func (m MarketContext) DaysToEarnings(now time.Time) *int {
	if m.Events == nil || m.Events.Date == nil {
		return nil
	}
	days := int(m.Events.Date.Sub(now).Hours() / 24)
	return &days
}
