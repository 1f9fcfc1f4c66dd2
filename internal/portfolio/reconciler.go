// Package portfolio maintains per-symbol holdings and derives portfolio
// aggregates. The reconciler is the only writer of position quantity,
// average price and invested amount; callers serialize invocations per
// (account, symbol), in production through a row-level lock taken inside
// the settlement transaction.
package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
)

// avgScale is the fixed-point scale of the weighted-average cost basis.
const avgScale = 4

// OpenPosition creates the position produced by the first BUY of a symbol.
// The cost basis capitalizes the trade value before fees: fees reduce SELL
// proceeds but are not added to BUY cost.
func OpenPosition(accountID, symbol, companyName string, qty int64, price, totalAmount decimal.Decimal, now time.Time) model.Position {
	return model.Position{
		AccountID:         accountID,
		Symbol:            symbol,
		CompanyName:       companyName,
		TotalQuantity:     qty,
		AvailableQuantity: qty,
		BlockedQuantity:   0,
		AveragePrice:      price.Round(avgScale),
		InvestedAmount:    totalAmount,
		CurrentPrice:      price,
		CurrentValue:      price.Mul(decimal.NewFromInt(qty)),
		UnrealizedPnl:     decimal.Zero,
		RealizedPnl:       decimal.Zero,
		DayChange:         decimal.Zero,
		DayChangePercent:  decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ApplyBuy folds an executed BUY into an existing position, recomputing the
// weighted-average cost at 4dp half-up.
func ApplyBuy(p model.Position, qty int64, price, totalAmount decimal.Decimal, now time.Time) model.Position {
	oldQty := decimal.NewFromInt(p.TotalQuantity)
	addQty := decimal.NewFromInt(qty)
	newQty := oldQty.Add(addQty)

	weighted := p.AveragePrice.Mul(oldQty).Add(price.Mul(addQty))
	p.AveragePrice = weighted.Div(newQty).Round(avgScale)
	p.TotalQuantity += qty
	p.AvailableQuantity += qty
	p.InvestedAmount = p.InvestedAmount.Add(totalAmount)
	p.CurrentPrice = price
	p.CurrentValue = price.Mul(decimal.NewFromInt(p.TotalQuantity))
	p.UpdatedAt = now
	return p
}

// ApplySell reduces the position by an executed SELL and accumulates the
// realized P&L against the weighted-average cost. The average price of the
// remaining shares is unchanged by a SELL. saleProceeds is the pre-fee trade
// value, mirroring the pre-fee cost basis on BUY.
func ApplySell(p model.Position, qty int64, saleProceeds decimal.Decimal, now time.Time) (model.Position, error) {
	if p.AvailableQuantity < qty {
		return p, apperr.New(apperr.BusinessRule, apperr.CodeInsufficientShares,
			"insufficient shares: available %d, requested %d", p.AvailableQuantity, qty)
	}

	costBasis := p.AveragePrice.Mul(decimal.NewFromInt(qty))
	p.RealizedPnl = p.RealizedPnl.Add(saleProceeds.Sub(costBasis))
	p.InvestedAmount = p.InvestedAmount.Sub(costBasis)
	p.TotalQuantity -= qty
	p.AvailableQuantity -= qty

	// A full exit zeroes the cost basis outright so average-price rounding
	// cannot leave a residual invested amount. Realized P&L is preserved.
	if p.TotalQuantity == 0 {
		p.InvestedAmount = decimal.Zero
	} else if p.InvestedAmount.IsNegative() {
		p.InvestedAmount = decimal.Zero
	}
	p.CurrentValue = p.CurrentPrice.Mul(decimal.NewFromInt(p.TotalQuantity))
	p.UpdatedAt = now
	return p, nil
}
