package portfolio

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/model"
)

// PriceFeed is the external market-data collaborator. Valuation treats a
// feed failure as "keep last known value" and never fails the read.
type PriceFeed interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
}

// PositionSource is the slice of the position store the aggregator reads.
type PositionSource interface {
	FindAll(ctx context.Context, accountID string) ([]model.Position, error)
}

type Holding struct {
	model.Position
	UnrealizedPnlPercent decimal.Decimal `json:"unrealized_pnl_percent"`
}

type Summary struct {
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalCurrentValue  decimal.Decimal `json:"total_current_value"`
	TotalUnrealizedPnl decimal.Decimal `json:"total_unrealized_pnl"`
	TotalRealizedPnl   decimal.Decimal `json:"total_realized_pnl"`
	TotalPnl           decimal.Decimal `json:"total_pnl"`
	TotalPnlPercent    decimal.Decimal `json:"total_pnl_percent"`
	DayChange          decimal.Decimal `json:"day_change"`
	DayChangePercent   decimal.Decimal `json:"day_change_percent"`
	TotalPositions     int             `json:"total_positions"`
	ActivePositions    int             `json:"active_positions"`
}

type View struct {
	Holdings []Holding `json:"holdings"`
	Summary  Summary   `json:"summary"`
}

// Service recomputes the portfolio view on demand; nothing here is
// incrementally maintained.
type Service struct {
	positions PositionSource
	feed      PriceFeed
	cache     *cache
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(positions PositionSource, feed PriceFeed, cacheTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		positions: positions,
		feed:      feed,
		cache:     newCache(cacheTTL),
		now:       time.Now,
		log:       log.With().Str("component", "portfolio").Logger(),
	}
}

// Invalidate drops the cached view for an account. Called synchronously at
// the end of every operation that mutates the account's positions.
func (s *Service) Invalidate(accountID string) {
	s.cache.evict(accountID)
}

func (s *Service) GetPortfolio(ctx context.Context, accountID string) (View, error) {
	now := s.now()
	if v, ok := s.cache.get(accountID, now); ok {
		return v, nil
	}

	all, err := s.positions.FindAll(ctx, accountID)
	if err != nil {
		return View{}, err
	}

	holdings := make([]Holding, 0, len(all))
	active := 0
	for i := range all {
		p := s.markToMarket(ctx, all[i])
		all[i] = p
		if p.TotalQuantity > 0 {
			active++
			holdings = append(holdings, Holding{
				Position:             p,
				UnrealizedPnlPercent: percentOf(p.UnrealizedPnl, p.InvestedAmount),
			})
		}
	}

	v := View{
		Holdings: holdings,
		Summary:  summarize(all, active),
	}
	s.cache.put(accountID, v, now)
	return v, nil
}

func (s *Service) GetSummary(ctx context.Context, accountID string) (Summary, error) {
	v, err := s.GetPortfolio(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}
	return v.Summary, nil
}

// markToMarket refreshes the valuation fields from the live feed; on feed
// failure the stored snapshot stays in place and the position is still
// included in the output.
func (s *Service) markToMarket(ctx context.Context, p model.Position) model.Position {
	if p.TotalQuantity == 0 {
		return p
	}
	q, err := s.feed.GetQuote(ctx, p.Symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", p.Symbol).Msg("price feed unavailable, keeping last value")
	} else {
		p.CurrentPrice = q.CurrentPrice
		p.DayChange = q.DayChange
		p.DayChangePercent = q.DayChangePercent
	}
	p.CurrentValue = p.CurrentPrice.Mul(decimal.NewFromInt(p.TotalQuantity))
	p.UnrealizedPnl = p.CurrentValue.Sub(p.InvestedAmount)
	return p
}

func summarize(all []model.Position, active int) Summary {
	var sum Summary
	sum.TotalInvested = decimal.Zero
	sum.TotalCurrentValue = decimal.Zero
	sum.TotalUnrealizedPnl = decimal.Zero
	sum.TotalRealizedPnl = decimal.Zero
	sum.DayChange = decimal.Zero

	for _, p := range all {
		sum.TotalRealizedPnl = sum.TotalRealizedPnl.Add(p.RealizedPnl)
		if p.TotalQuantity == 0 {
			continue
		}
		sum.TotalInvested = sum.TotalInvested.Add(p.InvestedAmount)
		sum.TotalCurrentValue = sum.TotalCurrentValue.Add(p.CurrentValue)
		sum.TotalUnrealizedPnl = sum.TotalUnrealizedPnl.Add(p.UnrealizedPnl)
		sum.DayChange = sum.DayChange.Add(p.DayChange.Mul(decimal.NewFromInt(p.TotalQuantity)))
	}

	sum.TotalPnl = sum.TotalUnrealizedPnl.Add(sum.TotalRealizedPnl)
	sum.TotalPnlPercent = percentOf(sum.TotalPnl, sum.TotalInvested)
	sum.DayChangePercent = percentOf(sum.DayChange, sum.TotalCurrentValue.Sub(sum.DayChange))
	sum.TotalPositions = len(all)
	sum.ActivePositions = active
	return sum
}

var hundred = decimal.NewFromInt(100)

// percentOf guards the zero denominator: the result is zero, never an error.
// Scaling to percent happens before rounding so the full 4dp carry through.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(4)
}
