// Package fees computes brokerage and statutory charges for a trade.
// All amounts are rounded half-up to 2 decimal places before summation;
// the order of rounding is part of the contract.
package fees

import "github.com/shopspring/decimal"

type Calculator struct {
	brokerageRate  decimal.Decimal
	transactionTax decimal.Decimal
	serviceTaxRate decimal.Decimal
}

type Charges struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Brokerage      decimal.Decimal `json:"brokerage"`
	TransactionTax decimal.Decimal `json:"transaction_tax"`
	ServiceTax     decimal.Decimal `json:"service_tax"`
	Taxes          decimal.Decimal `json:"taxes"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

func NewCalculator(brokerageRate, transactionTax, serviceTaxRate decimal.Decimal) *Calculator {
	return &Calculator{
		brokerageRate:  brokerageRate,
		transactionTax: transactionTax,
		serviceTaxRate: serviceTaxRate,
	}
}

// Compute derives the full charge breakdown for a trade of qty units at the
// given unit price. Callers guarantee positive inputs via upstream
// validation. The service tax is levied on the brokerage only.
func (c *Calculator) Compute(price decimal.Decimal, qty int64) Charges {
	total := price.Mul(decimal.NewFromInt(qty)).Round(2)
	brokerage := total.Mul(c.brokerageRate).Round(2)
	stt := total.Mul(c.transactionTax).Round(2)
	gst := brokerage.Mul(c.serviceTaxRate).Round(2)
	taxes := stt.Add(gst)
	return Charges{
		TotalAmount:    total,
		Brokerage:      brokerage,
		TransactionTax: stt,
		ServiceTax:     gst,
		Taxes:          taxes,
		NetAmount:      total.Add(brokerage).Add(taxes),
	}
}

// NetProceeds is the cash credited to the seller at settlement: the trade
// value net of brokerage and taxes. BUY settlement debits NetAmount instead.
func (ch Charges) NetProceeds() decimal.Decimal {
	return ch.TotalAmount.Sub(ch.Brokerage).Sub(ch.Taxes)
}
