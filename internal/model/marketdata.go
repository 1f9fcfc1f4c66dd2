package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is the latest simulated snapshot for one listed symbol.
type MarketData struct {
	Symbol             string          `json:"symbol"`
	CompanyName        string          `json:"company_name"`
	OpenPrice          decimal.Decimal `json:"open_price"`
	HighPrice          decimal.Decimal `json:"high_price"`
	LowPrice           decimal.Decimal `json:"low_price"`
	PreviousClose      decimal.Decimal `json:"previous_close"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	PriceChange        decimal.Decimal `json:"price_change"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`
	Volume             int64           `json:"volume"`
	BidPrice           decimal.Decimal `json:"bid_price"`
	AskPrice           decimal.Decimal `json:"ask_price"`
	IsActive           bool            `json:"is_active"`
	Timestamp          time.Time       `json:"timestamp"`
}

// Quote is the subset of market data the trading and portfolio paths read.
type Quote struct {
	Symbol           string          `json:"symbol"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePercent decimal.Decimal `json:"day_change_percent"`
}
