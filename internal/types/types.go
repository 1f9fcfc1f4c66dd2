package types

type TradeSide string

type OrderKind string

type TradeStatus string

type KycStatus string

type Role string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

const (
	OrderKindMarket         OrderKind = "MARKET"
	OrderKindLimit          OrderKind = "LIMIT"
	OrderKindStopLoss       OrderKind = "STOP_LOSS"
	OrderKindStopLossMarket OrderKind = "STOP_LOSS_MARKET"
)

const (
	TradeStatusPending           TradeStatus = "PENDING"
	TradeStatusExecuted          TradeStatus = "EXECUTED"
	TradeStatusPartiallyExecuted TradeStatus = "PARTIALLY_EXECUTED"
	TradeStatusCancelled         TradeStatus = "CANCELLED"
	TradeStatusRejected          TradeStatus = "REJECTED"
	TradeStatusExpired           TradeStatus = "EXPIRED"
)

const (
	KycStatusPending  KycStatus = "PENDING"
	KycStatusApproved KycStatus = "APPROVED"
	KycStatusRejected KycStatus = "REJECTED"
	KycStatusExpired  KycStatus = "EXPIRED"
)

const (
	RoleTrader Role = "TRADER"
	RoleAdmin  Role = "ADMIN"
)

// Terminal reports whether a trade status admits no further transitions.
func (s TradeStatus) Terminal() bool {
	switch s {
	case TradeStatusExecuted, TradeStatusCancelled, TradeStatusRejected, TradeStatusExpired:
		return true
	}
	return false
}

func ValidSide(s TradeSide) bool {
	return s == TradeSideBuy || s == TradeSideSell
}

func ValidOrderKind(k OrderKind) bool {
	switch k {
	case OrderKindMarket, OrderKindLimit, OrderKindStopLoss, OrderKindStopLossMarket:
		return true
	}
	return false
}
