package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the holding of one account in one symbol, keyed uniquely by
// (account_id, symbol). A fully sold position keeps its row with zero
// quantity so the accumulated realized P&L survives the exit.
type Position struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id"`
	Symbol            string          `json:"symbol"`
	CompanyName       string          `json:"company_name,omitempty"`
	TotalQuantity     int64           `json:"total_quantity"`
	AvailableQuantity int64           `json:"available_quantity"`
	BlockedQuantity   int64           `json:"blocked_quantity"`
	AveragePrice      decimal.Decimal `json:"average_price"`
	InvestedAmount    decimal.Decimal `json:"invested_amount"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	UnrealizedPnl     decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnl       decimal.Decimal `json:"realized_pnl"`
	DayChange         decimal.Decimal `json:"day_change"`
	DayChangePercent  decimal.Decimal `json:"day_change_percent"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Closed reports whether the position has been fully exited.
func (p Position) Closed() bool {
	return p.TotalQuantity == 0
}
