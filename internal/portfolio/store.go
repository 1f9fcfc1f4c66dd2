package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
)

// Store persists positions. FindForUpdate and Save run inside the
// settlement transaction; the read paths use the pool directly.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const positionColumns = "id, account_id, symbol, company_name, total_quantity, available_quantity, blocked_quantity, average_price, invested_amount, current_price, current_value, unrealized_pnl, realized_pnl, day_change, day_change_percent, created_at, updated_at"

func scanPosition(row pgx.Row) (model.Position, error) {
	var p model.Position
	err := row.Scan(&p.ID, &p.AccountID, &p.Symbol, &p.CompanyName, &p.TotalQuantity, &p.AvailableQuantity,
		&p.BlockedQuantity, &p.AveragePrice, &p.InvestedAmount, &p.CurrentPrice, &p.CurrentValue,
		&p.UnrealizedPnl, &p.RealizedPnl, &p.DayChange, &p.DayChangePercent, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// FindForUpdate locks the (account, symbol) position row for the duration
// of tx, serializing reconciliation per key. found is false when the
// account holds no position in the symbol.
func (s *Store) FindForUpdate(ctx context.Context, tx pgx.Tx, accountID, symbol string) (model.Position, bool, error) {
	p, err := scanPosition(tx.QueryRow(ctx,
		"select "+positionColumns+" from positions where account_id = $1 and symbol = $2 for update",
		accountID, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Position{}, false, nil
		}
		return model.Position{}, false, apperr.Transientf(err, "lock position")
	}
	return p, true, nil
}

func (s *Store) Insert(ctx context.Context, tx pgx.Tx, p model.Position) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		insert into positions (account_id, symbol, company_name, total_quantity, available_quantity, blocked_quantity,
			average_price, invested_amount, current_price, current_value, unrealized_pnl, realized_pnl,
			day_change, day_change_percent, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		returning id
	`, p.AccountID, p.Symbol, p.CompanyName, p.TotalQuantity, p.AvailableQuantity, p.BlockedQuantity,
		p.AveragePrice, p.InvestedAmount, p.CurrentPrice, p.CurrentValue, p.UnrealizedPnl, p.RealizedPnl,
		p.DayChange, p.DayChangePercent, p.CreatedAt, p.UpdatedAt).Scan(&id)
	if err != nil {
		return "", apperr.Transientf(err, "insert position")
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, tx pgx.Tx, p model.Position) error {
	_, err := tx.Exec(ctx, `
		update positions
		set total_quantity = $1, available_quantity = $2, blocked_quantity = $3, average_price = $4,
		    invested_amount = $5, current_price = $6, current_value = $7, unrealized_pnl = $8,
		    realized_pnl = $9, updated_at = $10
		where id = $11
	`, p.TotalQuantity, p.AvailableQuantity, p.BlockedQuantity, p.AveragePrice,
		p.InvestedAmount, p.CurrentPrice, p.CurrentValue, p.UnrealizedPnl,
		p.RealizedPnl, time.Now().UTC(), p.ID)
	if err != nil {
		return apperr.Transientf(err, "update position")
	}
	return nil
}

func (s *Store) queryPositions(ctx context.Context, query, accountID string) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, apperr.Transientf(err, "list positions")
	}
	defer rows.Close()
	var out []model.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, apperr.Transientf(err, "scan position")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindActive returns positions with a non-zero quantity.
func (s *Store) FindActive(ctx context.Context, accountID string) ([]model.Position, error) {
	return s.queryPositions(ctx,
		"select "+positionColumns+" from positions where account_id = $1 and total_quantity > 0 order by symbol", accountID)
}

// FindAll includes closed positions; their realized P&L still contributes
// to the portfolio summary.
func (s *Store) FindAll(ctx context.Context, accountID string) ([]model.Position, error) {
	return s.queryPositions(ctx,
		"select "+positionColumns+" from positions where account_id = $1 order by symbol", accountID)
}
