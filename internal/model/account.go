package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/types"
)

// Account is the trading account owned by a user. TotalBalance is the cash
// the user holds; AvailableBalance excludes funds blocked by pending BUY
// orders, so AvailableBalance <= TotalBalance at all times.
type Account struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	Username         string          `json:"username"`
	AccountNumber    string          `json:"account_number"`
	Role             types.Role      `json:"role"`
	Enabled          bool            `json:"enabled"`
	Locked           bool            `json:"locked"`
	KycStatus        types.KycStatus `json:"kyc_status"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	FailedLogins     int             `json:"-"`
	LastLoginAt      *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BlockedBalance is the cash reserved by pending BUY orders.
func (a Account) BlockedBalance() decimal.Decimal {
	return a.TotalBalance.Sub(a.AvailableBalance)
}
