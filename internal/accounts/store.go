package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
	"github.com/sandeep-jaiswar/core/internal/types"
)

// Store reads and mutates trading accounts. Balance mutations always run
// inside the caller's transaction so they commit or roll back together with
// the trade and position rows they settle.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const accountColumns = "id, email, username, account_number, role, enabled, locked, kyc_status, total_balance, available_balance, failed_logins, last_login_at, created_at, updated_at"

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	var role, kyc string
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.AccountNumber, &role, &a.Enabled, &a.Locked, &kyc,
		&a.TotalBalance, &a.AvailableBalance, &a.FailedLogins, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.Role = types.Role(role)
	a.KycStatus = types.KycStatus(kyc)
	return a, nil
}

func (s *Store) Get(ctx context.Context, accountID string) (model.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, "select "+accountColumns+" from accounts where id = $1", accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, apperr.NotFoundf("account %s not found", accountID)
		}
		return a, apperr.Transientf(err, "load account")
	}
	return a, nil
}

// GetForUpdate locks the account row for the duration of tx. Settlement
// takes this lock before touching balances so concurrent executions against
// the same account serialize.
func (s *Store) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (model.Account, error) {
	a, err := scanAccount(tx.QueryRow(ctx, "select "+accountColumns+" from accounts where id = $1 for update", accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, apperr.NotFoundf("account %s not found", accountID)
		}
		return a, apperr.Transientf(err, "lock account")
	}
	return a, nil
}

func (s *Store) UpdateBalances(ctx context.Context, tx pgx.Tx, accountID string, total, available decimal.Decimal) error {
	if available.GreaterThan(total) || total.IsNegative() || available.IsNegative() {
		return apperr.New(apperr.BusinessRule, apperr.CodeInsufficientBalance,
			"balance update would violate invariants: total=%s available=%s", total, available)
	}
	_, err := tx.Exec(ctx, "update accounts set total_balance = $1, available_balance = $2, updated_at = $3 where id = $4",
		total, available, time.Now().UTC(), accountID)
	if err != nil {
		return apperr.Transientf(err, "update balances")
	}
	return nil
}
