package trading

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
	"github.com/sandeep-jaiswar/core/internal/types"
)

// Store persists the immutable trade ledger. Lifecycle transitions go
// through MarkExecuted / UpdateStatus; executed rows are never rewritten.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const tradeColumns = "id, account_id, client_ref, symbol, company_name, side, order_kind, quantity, price, total_amount, brokerage, taxes, net_amount, status, notes, submitted_at, executed_at"

func scanTrade(row pgx.Row) (model.Trade, error) {
	var t model.Trade
	var side, kind, status string
	var clientRef, companyName, notes *string
	err := row.Scan(&t.ID, &t.AccountID, &clientRef, &t.Symbol, &companyName, &side, &kind, &t.Quantity,
		&t.Price, &t.TotalAmount, &t.Brokerage, &t.Taxes, &t.NetAmount, &status, &notes,
		&t.SubmittedAt, &t.ExecutedAt)
	if err != nil {
		return t, err
	}
	if clientRef != nil {
		t.ClientRef = *clientRef
	}
	if companyName != nil {
		t.CompanyName = *companyName
	}
	if notes != nil {
		t.Notes = *notes
	}
	t.Side = types.TradeSide(side)
	t.OrderKind = types.OrderKind(kind)
	t.Status = types.TradeStatus(status)
	return t, nil
}

func (s *Store) Create(ctx context.Context, tx pgx.Tx, t model.Trade) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		insert into trades (account_id, client_ref, symbol, company_name, side, order_kind, quantity, price,
			total_amount, brokerage, taxes, net_amount, status, notes, submitted_at)
		values ($1, nullif($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		returning id
	`, t.AccountID, t.ClientRef, t.Symbol, t.CompanyName, string(t.Side), string(t.OrderKind), t.Quantity,
		t.Price, t.TotalAmount, t.Brokerage, t.Taxes, t.NetAmount, string(t.Status), t.Notes, t.SubmittedAt).Scan(&id)
	if err != nil {
		return "", apperr.Transientf(err, "insert trade")
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, tradeID string) (model.Trade, error) {
	t, err := scanTrade(s.pool.QueryRow(ctx, "select "+tradeColumns+" from trades where id = $1", tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, apperr.NotFoundf("trade %s not found", tradeID)
		}
		return t, apperr.Transientf(err, "load trade")
	}
	return t, nil
}

// GetForUpdate locks the trade row so a lifecycle transition cannot race a
// concurrent execute or cancel of the same order.
func (s *Store) GetForUpdate(ctx context.Context, tx pgx.Tx, tradeID string) (model.Trade, error) {
	t, err := scanTrade(tx.QueryRow(ctx, "select "+tradeColumns+" from trades where id = $1 for update", tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, apperr.NotFoundf("trade %s not found", tradeID)
		}
		return t, apperr.Transientf(err, "lock trade")
	}
	return t, nil
}

// FindByClientRef resolves a duplicate submission to the trade it already
// created. found is false when the reference is unknown.
func (s *Store) FindByClientRef(ctx context.Context, accountID, clientRef string) (model.Trade, bool, error) {
	t, err := scanTrade(s.pool.QueryRow(ctx,
		"select "+tradeColumns+" from trades where account_id = $1 and client_ref = $2", accountID, clientRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Trade{}, false, nil
		}
		return model.Trade{}, false, apperr.Transientf(err, "find trade by client ref")
	}
	return t, true, nil
}

func (s *Store) MarkExecuted(ctx context.Context, tx pgx.Tx, tradeID string, executedAt time.Time) error {
	_, err := tx.Exec(ctx, "update trades set status = $1, executed_at = $2 where id = $3",
		string(types.TradeStatusExecuted), executedAt, tradeID)
	if err != nil {
		return apperr.Transientf(err, "mark trade executed")
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, tx pgx.Tx, tradeID string, status types.TradeStatus, notes string) error {
	_, err := tx.Exec(ctx, "update trades set status = $1, notes = $2 where id = $3",
		string(status), notes, tradeID)
	if err != nil {
		return apperr.Transientf(err, "update trade status")
	}
	return nil
}

type Page struct {
	Items      []model.Trade `json:"items"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	TotalItems int64         `json:"total_items"`
}

func (s *Store) ListByAccount(ctx context.Context, accountID string, page, size int) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	out := Page{Items: []model.Trade{}, Page: page, Size: size}

	err := s.pool.QueryRow(ctx, "select count(*) from trades where account_id = $1", accountID).Scan(&out.TotalItems)
	if err != nil {
		return out, apperr.Transientf(err, "count trades")
	}
	rows, err := s.pool.Query(ctx,
		"select "+tradeColumns+" from trades where account_id = $1 order by submitted_at desc, id desc limit $2 offset $3",
		accountID, size, page*size)
	if err != nil {
		return out, apperr.Transientf(err, "list trades")
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return out, apperr.Transientf(err, "scan trade")
		}
		out.Items = append(out.Items, t)
	}
	return out, rows.Err()
}
