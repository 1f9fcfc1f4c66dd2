package marketdata

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
)

// Store is the price feed backing trade execution and portfolio valuation.
// The simulator is its only writer; everything else reads whatever snapshot
// is currently available.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const marketColumns = "symbol, company_name, open_price, high_price, low_price, previous_close, current_price, price_change, price_change_percent, volume, bid_price, ask_price, is_active, updated_at"

func scanMarketData(row pgx.Row) (model.MarketData, error) {
	var m model.MarketData
	err := row.Scan(&m.Symbol, &m.CompanyName, &m.OpenPrice, &m.HighPrice, &m.LowPrice, &m.PreviousClose,
		&m.CurrentPrice, &m.PriceChange, &m.PriceChangePercent, &m.Volume, &m.BidPrice, &m.AskPrice,
		&m.IsActive, &m.Timestamp)
	return m, err
}

func (s *Store) GetBySymbol(ctx context.Context, symbol string) (model.MarketData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	m, err := scanMarketData(s.pool.QueryRow(ctx, "select "+marketColumns+" from market_data where symbol = $1", symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, apperr.NotFoundf("market data not found for symbol %s", symbol)
		}
		return m, apperr.Transientf(err, "load market data")
	}
	return m, nil
}

// GetQuote returns the current price snapshot for one symbol. Callers on
// best-effort paths treat any failure as "keep last known value".
func (s *Store) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	m, err := s.GetBySymbol(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{
		Symbol:           m.Symbol,
		CurrentPrice:     m.CurrentPrice,
		DayChange:        m.PriceChange,
		DayChangePercent: m.PriceChangePercent,
	}, nil
}

func (s *Store) ListActive(ctx context.Context) ([]model.MarketData, error) {
	rows, err := s.pool.Query(ctx, "select "+marketColumns+" from market_data where is_active order by volume desc")
	if err != nil {
		return nil, apperr.Transientf(err, "list market data")
	}
	defer rows.Close()
	var out []model.MarketData
	for rows.Next() {
		m, err := scanMarketData(rows)
		if err != nil {
			return nil, apperr.Transientf(err, "scan market data")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Movers returns the top gainers and losers by day-change percent.
func (s *Store) Movers(ctx context.Context, limit int) (gainers, losers []model.MarketData, err error) {
	if limit <= 0 {
		limit = 5
	}
	all, err := s.ListActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range all {
		if m.PriceChangePercent.GreaterThan(decimal.Zero) {
			gainers = append(gainers, m)
		} else if m.PriceChangePercent.LessThan(decimal.Zero) {
			losers = append(losers, m)
		}
	}
	sortByChange(gainers, true)
	sortByChange(losers, false)
	if len(gainers) > limit {
		gainers = gainers[:limit]
	}
	if len(losers) > limit {
		losers = losers[:limit]
	}
	return gainers, losers, nil
}

func sortByChange(items []model.MarketData, desc bool) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			greater := items[j].PriceChangePercent.GreaterThan(items[j-1].PriceChangePercent)
			if (desc && greater) || (!desc && !greater) {
				items[j], items[j-1] = items[j-1], items[j]
			} else {
				break
			}
		}
	}
}

func (s *Store) SaveSnapshot(ctx context.Context, m model.MarketData) error {
	_, err := s.pool.Exec(ctx, `
		update market_data
		set current_price = $1, price_change = $2, price_change_percent = $3,
		    high_price = $4, low_price = $5, volume = $6, bid_price = $7, ask_price = $8, updated_at = $9
		where symbol = $10
	`, m.CurrentPrice, m.PriceChange, m.PriceChangePercent, m.HighPrice, m.LowPrice,
		m.Volume, m.BidPrice, m.AskPrice, time.Now().UTC(), m.Symbol)
	if err != nil {
		return apperr.Transientf(err, "save market snapshot")
	}
	return nil
}

var seedSymbols = map[string]string{
	"RELIANCE":  "Reliance Industries Ltd",
	"INFY":      "Infosys Ltd",
	"TCS":       "Tata Consultancy Services Ltd",
	"HDFCBANK":  "HDFC Bank Ltd",
	"ICICIBANK": "ICICI Bank Ltd",
	"SBIN":      "State Bank of India",
	"ITC":       "ITC Ltd",
	"LT":        "Larsen & Toubro Ltd",
	"HCLTECH":   "HCL Technologies Ltd",
	"WIPRO":     "Wipro Ltd",
}

// EnsureSeed initializes snapshots for the default symbol catalog. Existing
// rows are left untouched.
func (s *Store) EnsureSeed(ctx context.Context) error {
	base := decimal.RequireFromString("1000.00")
	spread := decimal.RequireFromString("0.50")
	for symbol, name := range seedSymbols {
		_, err := s.pool.Exec(ctx, `
			insert into market_data (symbol, company_name, open_price, high_price, low_price, previous_close,
				current_price, price_change, price_change_percent, volume, bid_price, ask_price, is_active, updated_at)
			values ($1, $2, $3, $4, $5, $3, $3, 0, 0, 1000000, $6, $7, true, $8)
			on conflict (symbol) do nothing
		`, symbol, name, base,
			base.Mul(decimal.RequireFromString("1.02")),
			base.Mul(decimal.RequireFromString("0.98")),
			base.Sub(spread), base.Add(spread), time.Now().UTC())
		if err != nil {
			return apperr.Transientf(err, "seed market data")
		}
	}
	return nil
}
