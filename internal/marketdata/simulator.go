package marketdata

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/model"
)

// Simulator mutates price snapshots on a schedule, standing in for an
// exchange feed. It only writes to the market data store and shares no lock
// with trade execution.
type Simulator struct {
	store *Store
	bus   *Bus
	hours Window
	now   func() time.Time
	rng   *rand.Rand
	log   zerolog.Logger
}

func NewSimulator(store *Store, bus *Bus, hours Window, log zerolog.Logger) *Simulator {
	return &Simulator{
		store: store,
		bus:   bus,
		hours: hours,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		log:   log.With().Str("component", "market-simulator").Logger(),
	}
}

func (s *Simulator) Name() string { return "market-data-simulator" }

// Run advances every active symbol by one simulated tick. Outside market
// hours it is a no-op, matching the exchange being closed.
func (s *Simulator) Run() error {
	now := s.now()
	if !s.hours.Contains(now) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	symbols, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, m := range symbols {
		next := s.step(m)
		if err := s.store.SaveSnapshot(ctx, next); err != nil {
			s.log.Warn().Err(err).Str("symbol", m.Symbol).Msg("failed to persist tick")
			continue
		}
		s.bus.Publish(Event{Type: "quote", Data: model.Quote{
			Symbol:           next.Symbol,
			CurrentPrice:     next.CurrentPrice,
			DayChange:        next.PriceChange,
			DayChangePercent: next.PriceChangePercent,
		}})
	}
	s.log.Debug().Int("symbols", len(symbols)).Msg("tick applied")
	return nil
}

var (
	hundred   = decimal.NewFromInt(100)
	spreadTik = decimal.RequireFromString("0.50")
)

// step applies one random price movement: gaussian with 0.5% standard
// deviation, clamped to +/-2% per tick.
func (s *Simulator) step(m model.MarketData) model.MarketData {
	pct := s.rng.NormFloat64() * 0.5
	if pct > 2.0 {
		pct = 2.0
	}
	if pct < -2.0 {
		pct = -2.0
	}

	change := m.CurrentPrice.Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(2)
	next := m.CurrentPrice.Add(change).Round(2)
	if next.LessThanOrEqual(decimal.Zero) {
		next = m.CurrentPrice.Mul(decimal.RequireFromString("0.99")).Round(2)
		change = next.Sub(m.CurrentPrice)
	}

	m.CurrentPrice = next
	m.PriceChange = next.Sub(m.PreviousClose).Round(2)
	if m.PreviousClose.GreaterThan(decimal.Zero) {
		m.PriceChangePercent = m.PriceChange.Mul(hundred).Div(m.PreviousClose).Round(4)
	}
	if next.GreaterThan(m.HighPrice) {
		m.HighPrice = next
	}
	if next.LessThan(m.LowPrice) {
		m.LowPrice = next
	}

	m.Volume += int64(s.rng.NormFloat64() * 10000)
	if m.Volume < 1000 {
		m.Volume = 1000
	}
	m.BidPrice = next.Sub(spreadTik)
	m.AskPrice = next.Add(spreadTik)
	return m
}
