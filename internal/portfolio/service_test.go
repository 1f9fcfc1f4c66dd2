package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
)

type stubPositions struct {
	positions []model.Position
	calls     int
}

func (s *stubPositions) FindAll(ctx context.Context, accountID string) ([]model.Position, error) {
	s.calls++
	out := make([]model.Position, len(s.positions))
	copy(out, s.positions)
	return out, nil
}

type stubFeed struct {
	quotes map[string]model.Quote
}

func (s *stubFeed) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return model.Quote{}, apperr.Transientf(nil, "feed unavailable for %s", symbol)
	}
	return q, nil
}

func position(symbol string, qty int64, avg, invested, current string) model.Position {
	return model.Position{
		AccountID:         "acc-1",
		Symbol:            symbol,
		TotalQuantity:     qty,
		AvailableQuantity: qty,
		AveragePrice:      d(avg),
		InvestedAmount:    d(invested),
		CurrentPrice:      d(current),
		CurrentValue:      d(current).Mul(decimal.NewFromInt(qty)),
		RealizedPnl:       decimal.Zero,
	}
}

func newTestService(src PositionSource, feed PriceFeed, ttl time.Duration) *Service {
	return NewService(src, feed, ttl, zerolog.Nop())
}

func TestGetPortfolio_MarksToMarket(t *testing.T) {
	src := &stubPositions{positions: []model.Position{
		position("RELIANCE", 10, "100.0000", "1000.00", "100.00"),
	}}
	feed := &stubFeed{quotes: map[string]model.Quote{
		"RELIANCE": {Symbol: "RELIANCE", CurrentPrice: d("120.00"), DayChange: d("2.00"), DayChangePercent: d("1.69")},
	}}
	svc := newTestService(src, feed, 0)

	v, err := svc.GetPortfolio(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, v.Holdings, 1)

	h := v.Holdings[0]
	assert.Equal(t, "1200.00", h.CurrentValue.StringFixed(2))
	assert.Equal(t, "200.00", h.UnrealizedPnl.StringFixed(2))
	assert.Equal(t, "20.00", h.UnrealizedPnlPercent.StringFixed(2))
	assert.Equal(t, "200.00", v.Summary.TotalUnrealizedPnl.StringFixed(2))
}

func TestGetPortfolio_FeedFailureKeepsLastValue(t *testing.T) {
	src := &stubPositions{positions: []model.Position{
		position("TCS", 4, "500.0000", "2000.00", "510.00"),
	}}
	svc := newTestService(src, &stubFeed{quotes: map[string]model.Quote{}}, 0)

	v, err := svc.GetPortfolio(context.Background(), "acc-1")
	require.NoError(t, err, "a stale feed must not fail the read")
	require.Len(t, v.Holdings, 1)
	assert.Equal(t, "510.00", v.Holdings[0].CurrentPrice.StringFixed(2))
	assert.Equal(t, "2040.00", v.Holdings[0].CurrentValue.StringFixed(2))
}

func TestGetPortfolio_EmptyAccount(t *testing.T) {
	svc := newTestService(&stubPositions{}, &stubFeed{}, 0)

	v, err := svc.GetPortfolio(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Empty(t, v.Holdings)
	assert.True(t, v.Summary.TotalPnlPercent.IsZero(), "zero denominator must yield zero percent")
	assert.True(t, v.Summary.DayChangePercent.IsZero())
	assert.Equal(t, 0, v.Summary.ActivePositions)
}

func TestGetSummary_ClosedPositionKeepsRealizedPnl(t *testing.T) {
	closed := position("INFY", 0, "0.0000", "0.00", "1500.00")
	closed.RealizedPnl = d("250.00")
	open := position("SBIN", 2, "600.0000", "1200.00", "700.00")
	src := &stubPositions{positions: []model.Position{closed, open}}
	feed := &stubFeed{quotes: map[string]model.Quote{
		"SBIN": {Symbol: "SBIN", CurrentPrice: d("700.00")},
	}}
	svc := newTestService(src, feed, 0)

	sum, err := svc.GetSummary(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "250.00", sum.TotalRealizedPnl.StringFixed(2))
	assert.Equal(t, "200.00", sum.TotalUnrealizedPnl.StringFixed(2))
	assert.Equal(t, "450.00", sum.TotalPnl.StringFixed(2))
	assert.Equal(t, 2, sum.TotalPositions)
	assert.Equal(t, 1, sum.ActivePositions)
	assert.Equal(t, "1200.00", sum.TotalInvested.StringFixed(2), "closed positions do not contribute invested amount")
}

func TestPercentOf_Keeps4dpPrecision(t *testing.T) {
	assert.Equal(t, "33.3333", percentOf(d("1"), d("3")).StringFixed(4))
	assert.Equal(t, "0.0417", percentOf(d("0.50"), d("1200.00")).StringFixed(4))
	assert.Equal(t, "20.0000", percentOf(d("200.00"), d("1000.00")).StringFixed(4))
	assert.True(t, percentOf(d("5"), decimal.Zero).IsZero())
	assert.True(t, percentOf(d("5"), d("-1")).IsZero())
}

func TestGetPortfolio_CachesUntilInvalidated(t *testing.T) {
	src := &stubPositions{positions: []model.Position{
		position("ITC", 5, "400.0000", "2000.00", "410.00"),
	}}
	feed := &stubFeed{quotes: map[string]model.Quote{
		"ITC": {Symbol: "ITC", CurrentPrice: d("410.00")},
	}}
	svc := newTestService(src, feed, time.Minute)

	_, err := svc.GetPortfolio(context.Background(), "acc-1")
	require.NoError(t, err)
	_, err = svc.GetPortfolio(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second read must be served from cache")

	svc.Invalidate("acc-1")
	_, err = svc.GetPortfolio(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
