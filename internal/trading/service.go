// Package trading owns the trade ledger and its lifecycle: submission,
// execution, cancellation and rejection. Settlement runs in Serializable
// transactions that lock the account row first, then the trade and position
// rows, so concurrent orders against one account serialize cleanly.
package trading

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/fees"
	"github.com/sandeep-jaiswar/core/internal/model"
	"github.com/sandeep-jaiswar/core/internal/portfolio"
	"github.com/sandeep-jaiswar/core/internal/types"
)

// DB begins the transactions settlement runs in. *pgxpool.Pool satisfies it.
type DB interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TradeStore persists the trade ledger rows.
type TradeStore interface {
	Create(ctx context.Context, tx pgx.Tx, t model.Trade) (string, error)
	Get(ctx context.Context, tradeID string) (model.Trade, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, tradeID string) (model.Trade, error)
	FindByClientRef(ctx context.Context, accountID, clientRef string) (model.Trade, bool, error)
	MarkExecuted(ctx context.Context, tx pgx.Tx, tradeID string, executedAt time.Time) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, tradeID string, status types.TradeStatus, notes string) error
	ListByAccount(ctx context.Context, accountID string, page, size int) (Page, error)
}

// AccountStore reads and mutates account balances inside settlement.
type AccountStore interface {
	Get(ctx context.Context, accountID string) (model.Account, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (model.Account, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, accountID string, total, available decimal.Decimal) error
}

// PositionStore persists per-symbol holdings inside settlement.
type PositionStore interface {
	FindForUpdate(ctx context.Context, tx pgx.Tx, accountID, symbol string) (model.Position, bool, error)
	Insert(ctx context.Context, tx pgx.Tx, p model.Position) (string, error)
	Update(ctx context.Context, tx pgx.Tx, p model.Position) error
}

// MarketFeed resolves symbols to their current snapshot. MARKET orders
// execute at the feed price; LIMIT and STOP orders only use it to verify the
// symbol exists.
type MarketFeed interface {
	GetBySymbol(ctx context.Context, symbol string) (model.MarketData, error)
}

// CacheInvalidator drops derived portfolio state after a position mutation.
type CacheInvalidator interface {
	Invalidate(accountID string)
}

type Service struct {
	db         DB
	trades     TradeStore
	accounts   AccountStore
	positions  PositionStore
	market     MarketFeed
	calc       *fees.Calculator
	validator  *Validator
	retrier    *Retrier
	invalidate CacheInvalidator
	now        func() time.Time
	log        zerolog.Logger
}

func NewService(db DB, trades TradeStore, accts AccountStore, positions PositionStore,
	market MarketFeed, calc *fees.Calculator, validator *Validator, retrier *Retrier,
	invalidate CacheInvalidator, log zerolog.Logger) *Service {
	return &Service{
		db:         db,
		trades:     trades,
		accounts:   accts,
		positions:  positions,
		market:     market,
		calc:       calc,
		validator:  validator,
		retrier:    retrier,
		invalidate: invalidate,
		now:        time.Now,
		log:        log.With().Str("component", "trading").Logger(),
	}
}

type PlaceRequest struct {
	Symbol    string          `json:"symbol"`
	Side      types.TradeSide `json:"side"`
	OrderKind types.OrderKind `json:"order_kind"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ClientRef string          `json:"client_ref"`
}

func (r *PlaceRequest) validate() error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Symbol == "" {
		return apperr.Validationf("symbol is required")
	}
	if !types.ValidSide(r.Side) {
		return apperr.Validationf("side must be BUY or SELL")
	}
	if !types.ValidOrderKind(r.OrderKind) {
		return apperr.Validationf("unknown order kind %q", r.OrderKind)
	}
	if r.Quantity <= 0 {
		return apperr.Validationf("quantity must be positive")
	}
	if r.OrderKind != types.OrderKindMarket && !r.Price.IsPositive() {
		return apperr.Validationf("%s orders require a positive price", r.OrderKind)
	}
	return nil
}

// PlaceTrade validates and submits an order, blocking funds for a BUY, and
// auto-executes MARKET orders at the current feed price. The whole unit is
// wrapped in the transient-failure retry loop.
func (s *Service) PlaceTrade(ctx context.Context, accountID string, req PlaceRequest) (model.Trade, error) {
	if err := req.validate(); err != nil {
		return model.Trade{}, err
	}
	// The retry loop re-runs the whole unit, so every order carries a
	// reference: a re-run after a partially completed attempt resolves to
	// the first attempt's trade instead of charging the account again.
	if req.ClientRef == "" {
		req.ClientRef = uuid.NewString()
	}

	var out model.Trade
	err := s.retrier.Do(ctx, "place trade", func(ctx context.Context) error {
		t, err := s.placeOnce(ctx, accountID, req)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (s *Service) placeOnce(ctx context.Context, accountID string, req PlaceRequest) (model.Trade, error) {
	existing, found, err := s.trades.FindByClientRef(ctx, accountID, req.ClientRef)
	if err != nil {
		return model.Trade{}, err
	}
	if found {
		s.log.Info().Str("trade_id", existing.ID).Str("client_ref", req.ClientRef).
			Msg("duplicate submission resolved to existing trade")
		// A pending market order means an earlier attempt failed between
		// submission and fill; resume the fill instead of returning a
		// silently unexecuted trade.
		if existing.Status == types.TradeStatusPending && existing.OrderKind == types.OrderKindMarket {
			return s.finishMarket(ctx, accountID, existing.ID)
		}
		return existing, nil
	}

	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return model.Trade{}, err
	}
	now := s.now().UTC()
	if err := s.validator.CheckEligibility(acc, req.OrderKind, now); err != nil {
		return model.Trade{}, err
	}

	md, err := s.market.GetBySymbol(ctx, req.Symbol)
	if err != nil {
		return model.Trade{}, err
	}
	price := req.Price
	if req.OrderKind == types.OrderKindMarket {
		price = md.CurrentPrice
	}

	charges := s.calc.Compute(price, req.Quantity)
	trade := model.Trade{
		AccountID:   accountID,
		ClientRef:   req.ClientRef,
		Symbol:      req.Symbol,
		CompanyName: md.CompanyName,
		Side:        req.Side,
		OrderKind:   req.OrderKind,
		Quantity:    req.Quantity,
		Price:       price,
		TotalAmount: charges.TotalAmount,
		Brokerage:   charges.Brokerage,
		Taxes:       charges.Taxes,
		Status:      types.TradeStatusPending,
		SubmittedAt: now,
	}
	// NetAmount is the settlement cash amount: the debit for a BUY, the
	// credit for a SELL.
	if req.Side == types.TradeSideBuy {
		trade.NetAmount = charges.NetAmount
	} else {
		trade.NetAmount = charges.NetProceeds()
	}

	tradeID, err := s.submit(ctx, trade)
	if err != nil {
		return model.Trade{}, err
	}

	if req.OrderKind == types.OrderKindMarket {
		return s.finishMarket(ctx, accountID, tradeID)
	}
	return s.trades.Get(ctx, tradeID)
}

// finishMarket fills a submitted market order. Business-rule failures
// downgrade the order to REJECTED; a concurrent settlement of the same
// order is treated as already done.
func (s *Service) finishMarket(ctx context.Context, accountID, tradeID string) (model.Trade, error) {
	err := s.executePending(ctx, tradeID)
	switch {
	case err == nil:
		s.invalidate.Invalidate(accountID)
	case apperr.CodeOf(err) == apperr.CodeInvalidState:
		// Settled by another request between dedup and execution.
	case apperr.KindOf(err) == apperr.BusinessRule:
		s.rejectPending(ctx, tradeID, err.Error())
		return model.Trade{}, err
	default:
		return model.Trade{}, err
	}
	return s.trades.Get(ctx, tradeID)
}

// submit persists the PENDING trade and, for a BUY, blocks the net amount by
// reducing the available balance. Total balance is untouched until execution.
func (s *Service) submit(ctx context.Context, trade model.Trade) (string, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return "", apperr.Transientf(err, "begin submit tx")
	}
	defer tx.Rollback(ctx)

	acc, err := s.accounts.GetForUpdate(ctx, tx, trade.AccountID)
	if err != nil {
		return "", err
	}
	if trade.Side == types.TradeSideBuy {
		if acc.AvailableBalance.LessThan(trade.NetAmount) {
			return "", apperr.New(apperr.BusinessRule, apperr.CodeInsufficientBalance,
				"insufficient balance: available %s, required %s", acc.AvailableBalance, trade.NetAmount)
		}
		newAvailable := acc.AvailableBalance.Sub(trade.NetAmount)
		if err := s.accounts.UpdateBalances(ctx, tx, acc.ID, acc.TotalBalance, newAvailable); err != nil {
			return "", err
		}
	}

	id, err := s.trades.Create(ctx, tx, trade)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", apperr.Transientf(err, "commit submit tx")
	}
	s.log.Info().Str("trade_id", id).Str("symbol", trade.Symbol).Str("side", string(trade.Side)).
		Int64("qty", trade.Quantity).Str("net", trade.NetAmount.String()).Msg("trade submitted")
	return id, nil
}

// Execute settles a pending trade. Only admins may trigger it; MARKET orders
// go through the same path automatically at submission. A business-rule
// failure during settlement leaves the trade REJECTED with the reason in its
// notes and releases any blocked funds.
func (s *Service) Execute(ctx context.Context, actorID string, actorRole types.Role, tradeID string) (model.Trade, error) {
	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		return model.Trade{}, err
	}
	if err := Authorize(actorID, actorRole, ActionExecute, trade.AccountID); err != nil {
		return model.Trade{}, err
	}

	err = s.retrier.Do(ctx, "execute trade", func(ctx context.Context) error {
		return s.executePending(ctx, tradeID)
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.BusinessRule && apperr.CodeOf(err) != apperr.CodeInvalidState {
			s.rejectPending(ctx, tradeID, err.Error())
		}
		return model.Trade{}, err
	}
	s.invalidate.Invalidate(trade.AccountID)
	return s.trades.Get(ctx, tradeID)
}

// executePending runs the settlement transaction: balance movement, position
// reconciliation and the EXECUTED stamp commit atomically or not at all.
func (s *Service) executePending(ctx context.Context, tradeID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperr.Transientf(err, "begin execute tx")
	}
	defer tx.Rollback(ctx)

	trade, err := s.trades.GetForUpdate(ctx, tx, tradeID)
	if err != nil {
		return err
	}
	if trade.Status != types.TradeStatusPending {
		return apperr.New(apperr.BusinessRule, apperr.CodeInvalidState,
			"trade %s is %s, only PENDING trades can be executed", trade.ID, trade.Status)
	}

	acc, err := s.accounts.GetForUpdate(ctx, tx, trade.AccountID)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	switch trade.Side {
	case types.TradeSideBuy:
		err = s.settleBuy(ctx, tx, trade, acc, now)
	case types.TradeSideSell:
		err = s.settleSell(ctx, tx, trade, acc, now)
	}
	if err != nil {
		return err
	}

	if err := s.trades.MarkExecuted(ctx, tx, trade.ID, now); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Transientf(err, "commit execute tx")
	}
	s.log.Info().Str("trade_id", trade.ID).Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).Msg("trade executed")
	return nil
}

// settleBuy debits the already-blocked net amount from the total balance and
// folds the fill into the position.
func (s *Service) settleBuy(ctx context.Context, tx pgx.Tx, trade model.Trade, acc model.Account, now time.Time) error {
	newTotal := acc.TotalBalance.Sub(trade.NetAmount)
	if err := s.accounts.UpdateBalances(ctx, tx, acc.ID, newTotal, acc.AvailableBalance); err != nil {
		return err
	}

	p, found, err := s.positions.FindForUpdate(ctx, tx, trade.AccountID, trade.Symbol)
	if err != nil {
		return err
	}
	if !found {
		p = portfolio.OpenPosition(trade.AccountID, trade.Symbol, trade.CompanyName,
			trade.Quantity, trade.Price, trade.TotalAmount, now)
		_, err = s.positions.Insert(ctx, tx, p)
		return err
	}
	p = portfolio.ApplyBuy(p, trade.Quantity, trade.Price, trade.TotalAmount, now)
	return s.positions.Update(ctx, tx, p)
}

// settleSell reduces the position, realizes P&L against the average cost and
// credits the net proceeds to both balances.
func (s *Service) settleSell(ctx context.Context, tx pgx.Tx, trade model.Trade, acc model.Account, now time.Time) error {
	p, found, err := s.positions.FindForUpdate(ctx, tx, trade.AccountID, trade.Symbol)
	if err != nil {
		return err
	}
	if !found {
		return apperr.New(apperr.BusinessRule, apperr.CodeNoPosition,
			"no position in %s to sell", trade.Symbol)
	}
	p, err = portfolio.ApplySell(p, trade.Quantity, trade.TotalAmount, now)
	if err != nil {
		return err
	}
	if err := s.positions.Update(ctx, tx, p); err != nil {
		return err
	}

	newTotal := acc.TotalBalance.Add(trade.NetAmount)
	newAvailable := acc.AvailableBalance.Add(trade.NetAmount)
	return s.accounts.UpdateBalances(ctx, tx, acc.ID, newTotal, newAvailable)
}

// rejectPending marks a pending trade REJECTED with the failure reason and
// releases funds blocked at submission. Runs after the failed settlement
// transaction has rolled back; best effort, the settlement error is what the
// caller reports.
func (s *Service) rejectPending(ctx context.Context, tradeID, reason string) {
	err := s.transition(ctx, tradeID, types.TradeStatusRejected, reason)
	if err != nil {
		s.log.Error().Err(err).Str("trade_id", tradeID).Msg("failed to record trade rejection")
	}
}

// Cancel voids a pending trade. Owners cancel their own trades; admins may
// cancel anyone's. Funds blocked by a BUY are released.
func (s *Service) Cancel(ctx context.Context, actorID string, actorRole types.Role, tradeID string) (model.Trade, error) {
	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		return model.Trade{}, err
	}
	if err := Authorize(actorID, actorRole, ActionCancel, trade.AccountID); err != nil {
		return model.Trade{}, err
	}
	if err := s.transition(ctx, tradeID, types.TradeStatusCancelled, "cancelled before execution"); err != nil {
		return model.Trade{}, err
	}
	return s.trades.Get(ctx, tradeID)
}

// transition moves a PENDING trade to a terminal non-executed status,
// releasing the BUY block so available funds return to the account.
func (s *Service) transition(ctx context.Context, tradeID string, status types.TradeStatus, notes string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperr.Transientf(err, "begin transition tx")
	}
	defer tx.Rollback(ctx)

	trade, err := s.trades.GetForUpdate(ctx, tx, tradeID)
	if err != nil {
		return err
	}
	if trade.Status != types.TradeStatusPending {
		return apperr.New(apperr.BusinessRule, apperr.CodeInvalidState,
			"trade %s is %s, only PENDING trades can transition to %s", trade.ID, trade.Status, status)
	}

	if trade.Side == types.TradeSideBuy {
		acc, err := s.accounts.GetForUpdate(ctx, tx, trade.AccountID)
		if err != nil {
			return err
		}
		released := acc.AvailableBalance.Add(trade.NetAmount)
		if err := s.accounts.UpdateBalances(ctx, tx, acc.ID, acc.TotalBalance, released); err != nil {
			return err
		}
	}
	if err := s.trades.UpdateStatus(ctx, tx, tradeID, status, notes); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Transientf(err, "commit transition tx")
	}
	s.log.Info().Str("trade_id", tradeID).Str("status", string(status)).Msg("trade transitioned")
	return nil
}

// Get returns one trade, visible to its owner and to admins.
func (s *Service) Get(ctx context.Context, actorID string, actorRole types.Role, tradeID string) (model.Trade, error) {
	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		return model.Trade{}, err
	}
	if err := Authorize(actorID, actorRole, ActionView, trade.AccountID); err != nil {
		return model.Trade{}, err
	}
	return trade, nil
}

// List returns the account's trade history, newest first.
func (s *Service) List(ctx context.Context, accountID string, page, size int) (Page, error) {
	return s.trades.ListByAccount(ctx, accountID, page, size)
}
