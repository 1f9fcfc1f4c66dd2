package trading

import (
	"time"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/marketdata"
	"github.com/sandeep-jaiswar/core/internal/model"
	"github.com/sandeep-jaiswar/core/internal/types"
)

// Validator checks account eligibility before an order is accepted. It is
// read-only: no check here mutates anything.
type Validator struct {
	hours marketdata.Window
}

func NewValidator(hours marketdata.Window) *Validator {
	return &Validator{hours: hours}
}

// CheckEligibility fails with the first violated rule. MARKET orders are
// additionally bound to the trading-hours window; LIMIT and STOP kinds may
// be queued outside hours and wait for manual execution.
func (v *Validator) CheckEligibility(acc model.Account, kind types.OrderKind, now time.Time) error {
	if !acc.Enabled {
		return apperr.New(apperr.BusinessRule, apperr.CodeAccountDisabled, "account is disabled")
	}
	if acc.Locked {
		return apperr.New(apperr.BusinessRule, apperr.CodeAccountLocked, "account is locked")
	}
	if acc.KycStatus != types.KycStatusApproved {
		return apperr.New(apperr.BusinessRule, apperr.CodeKycNotApproved, "KYC approval required before trading")
	}
	if kind == types.OrderKindMarket && !v.hours.Contains(now) {
		return apperr.New(apperr.BusinessRule, apperr.CodeOutsideTradingHours,
			"market orders are accepted only during trading hours")
	}
	return nil
}
