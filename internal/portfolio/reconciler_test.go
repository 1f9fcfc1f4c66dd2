package portfolio

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testTime = time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)

func TestOpenPosition(t *testing.T) {
	p := OpenPosition("acc-1", "RELIANCE", "Reliance Industries", 10, d("100.00"), d("1000.00"), testTime)

	assert.Equal(t, int64(10), p.TotalQuantity)
	assert.Equal(t, int64(10), p.AvailableQuantity)
	assert.Equal(t, "100.0000", p.AveragePrice.StringFixed(4))
	assert.Equal(t, "1000.00", p.InvestedAmount.StringFixed(2))
	assert.True(t, p.RealizedPnl.IsZero())
}

func TestApplyBuy_RecomputesWeightedAverage(t *testing.T) {
	p := OpenPosition("acc-1", "TCS", "Tata Consultancy Services", 10, d("100.00"), d("1000.00"), testTime)

	p = ApplyBuy(p, 10, d("200.00"), d("2000.00"), testTime)

	assert.Equal(t, int64(20), p.TotalQuantity)
	assert.Equal(t, "150.0000", p.AveragePrice.StringFixed(4))
	assert.Equal(t, "3000.00", p.InvestedAmount.StringFixed(2))
}

func TestApplyBuy_AverageRoundsHalfUpTo4dp(t *testing.T) {
	p := OpenPosition("acc-1", "INFY", "Infosys", 3, d("10.00"), d("30.00"), testTime)

	// (10*3 + 20*1) / 4 = 12.5 exactly; (10*3 + 10.0001*3) / 6 exercises rounding.
	p = ApplyBuy(p, 1, d("20.00"), d("20.00"), testTime)
	assert.Equal(t, "12.5000", p.AveragePrice.StringFixed(4))

	q := OpenPosition("acc-1", "INFY", "Infosys", 3, d("10.00"), d("30.00"), testTime)
	q = ApplyBuy(q, 3, d("10.0001"), d("30.00"), testTime)
	assert.Equal(t, "10.0001", q.AveragePrice.StringFixed(4))
}

func TestApplySell_RealizesAgainstAverageCost(t *testing.T) {
	p := OpenPosition("acc-1", "HDFCBANK", "HDFC Bank", 10, d("100.00"), d("1000.00"), testTime)

	p, err := ApplySell(p, 5, d("750.00"), testTime)
	require.NoError(t, err)

	assert.Equal(t, int64(5), p.TotalQuantity)
	assert.Equal(t, "100.0000", p.AveragePrice.StringFixed(4), "average price unchanged by a sell")
	assert.Equal(t, "500.00", p.InvestedAmount.StringFixed(2))
	assert.Equal(t, "250.00", p.RealizedPnl.StringFixed(2))
}

func TestApplySell_FullExitZeroesInvestedKeepsRealized(t *testing.T) {
	p := OpenPosition("acc-1", "SBIN", "State Bank of India", 7, d("333.3333"), d("2333.33"), testTime)

	p, err := ApplySell(p, 7, d("2450.00"), testTime)
	require.NoError(t, err)

	assert.Equal(t, int64(0), p.TotalQuantity)
	assert.True(t, p.InvestedAmount.IsZero())
	assert.False(t, p.RealizedPnl.IsZero())
	assert.True(t, p.Closed())
}

func TestApplySell_InsufficientSharesLeavesPositionUnmodified(t *testing.T) {
	p := OpenPosition("acc-1", "WIPRO", "Wipro", 5, d("400.00"), d("2000.00"), testTime)

	got, err := ApplySell(p, 6, d("2500.00"), testTime)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInsufficientShares, apperr.CodeOf(err))
	assert.Equal(t, p, got)
}

func TestApplySell_LossIsNegativeRealized(t *testing.T) {
	p := OpenPosition("acc-1", "ITC", "ITC", 10, d("450.00"), d("4500.00"), testTime)

	p, err := ApplySell(p, 10, d("4000.00"), testTime)
	require.NoError(t, err)
	assert.Equal(t, "-500.00", p.RealizedPnl.StringFixed(2))
}

// Randomized interleavings with per-symbol serialization, mirroring the
// row-level lock execution takes in production. Quantity must never go
// negative and invested must stay non-negative throughout.
func TestReconcile_RandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	symbols := []string{"RELIANCE", "TCS", "INFY"}

	var mu sync.Mutex
	book := map[string]model.Position{}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		seed := rng.Int63()
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				sym := symbols[local.Intn(len(symbols))]
				qty := int64(local.Intn(10) + 1)
				price := decimal.NewFromInt(int64(local.Intn(900) + 100))
				total := price.Mul(decimal.NewFromInt(qty))

				mu.Lock()
				p, ok := book[sym]
				switch {
				case !ok || p.TotalQuantity == 0:
					book[sym] = OpenPosition("acc-1", sym, sym, qty, price, total, testTime)
				case local.Intn(2) == 0:
					book[sym] = ApplyBuy(p, qty, price, total, testTime)
				default:
					next, err := ApplySell(p, qty, total, testTime)
					if err == nil {
						book[sym] = next
					}
				}
				for _, pos := range book {
					if pos.TotalQuantity < 0 || pos.AvailableQuantity < 0 {
						mu.Unlock()
						t.Errorf("negative quantity for %s", pos.Symbol)
						return
					}
					if pos.AvailableQuantity > pos.TotalQuantity {
						mu.Unlock()
						t.Errorf("available exceeds total for %s", pos.Symbol)
						return
					}
					if pos.InvestedAmount.IsNegative() {
						mu.Unlock()
						t.Errorf("negative invested amount for %s", pos.Symbol)
						return
					}
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
