package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/types"
)

// Trade is one submitted order instruction. A trade is created PENDING and
// becomes immutable once it reaches a terminal status.
type Trade struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	ClientRef   string            `json:"client_ref,omitempty"`
	Symbol      string            `json:"symbol"`
	CompanyName string            `json:"company_name,omitempty"`
	Side        types.TradeSide   `json:"side"`
	OrderKind   types.OrderKind   `json:"order_kind"`
	Quantity    int64             `json:"quantity"`
	Price       decimal.Decimal   `json:"price"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Brokerage   decimal.Decimal   `json:"brokerage"`
	Taxes       decimal.Decimal   `json:"taxes"`
	NetAmount   decimal.Decimal   `json:"net_amount"`
	Status      types.TradeStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	ExecutedAt  *time.Time        `json:"executed_at,omitempty"`
}
