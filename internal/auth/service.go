// Package auth issues and verifies the bearer tokens that gate every
// trading endpoint, and owns account registration.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeep-jaiswar/core/internal/apperr"
	"github.com/sandeep-jaiswar/core/internal/model"
	"github.com/sandeep-jaiswar/core/internal/types"
)

// maxFailedLogins locks the account on the next failed attempt.
const maxFailedLogins = 5

type Service struct {
	pool           *pgxpool.Pool
	issuer         string
	secret         []byte
	ttl            time.Duration
	openingBalance decimal.Decimal
	log            zerolog.Logger
}

func NewService(pool *pgxpool.Pool, issuer string, secret []byte, ttl time.Duration,
	openingBalance decimal.Decimal, log zerolog.Logger) *Service {
	return &Service{
		pool:           pool,
		issuer:         issuer,
		secret:         secret,
		ttl:            ttl,
		openingBalance: openingBalance,
		log:            log.With().Str("component", "auth").Logger(),
	}
}

// Identity is the authenticated principal extracted from a bearer token.
type Identity struct {
	AccountID string
	Role      types.Role
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Register opens a trading account funded with the opening balance. KYC is
// approved immediately; this is a simulated brokerage, there is no external
// verification step.
func (s *Service) Register(ctx context.Context, email, username, password string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return model.Account{}, apperr.Validationf("a valid email is required")
	}
	if username == "" {
		return model.Account{}, apperr.Validationf("username is required")
	}
	if len(password) < 8 {
		return model.Account{}, apperr.Validationf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Account{}, apperr.Transientf(err, "hash password")
	}

	now := time.Now().UTC()
	acc := model.Account{
		Email:            email,
		Username:         username,
		AccountNumber:    "ACC-" + strings.ToUpper(uuid.NewString()[:8]),
		Role:             types.RoleTrader,
		Enabled:          true,
		KycStatus:        types.KycStatusApproved,
		TotalBalance:     s.openingBalance,
		AvailableBalance: s.openingBalance,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Account{}, apperr.Transientf(err, "begin register tx")
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "select exists(select 1 from accounts where email = $1 or username = $2)",
		email, username).Scan(&exists); err != nil {
		return model.Account{}, apperr.Transientf(err, "check existing account")
	}
	if exists {
		return model.Account{}, apperr.Validationf("email or username already registered")
	}

	err = tx.QueryRow(ctx, `
		insert into accounts (email, username, account_number, password_hash, role, enabled, locked, kyc_status,
			total_balance, available_balance, failed_logins, created_at, updated_at)
		values ($1, $2, $3, $4, $5, true, false, $6, $7, $8, 0, $9, $9)
		returning id
	`, acc.Email, acc.Username, acc.AccountNumber, string(hash), string(acc.Role), string(acc.KycStatus),
		acc.TotalBalance, acc.AvailableBalance, now).Scan(&acc.ID)
	if err != nil {
		return model.Account{}, apperr.Transientf(err, "insert account")
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Account{}, apperr.Transientf(err, "commit register tx")
	}

	s.log.Info().Str("account_id", acc.ID).Str("account_number", acc.AccountNumber).Msg("account registered")
	return acc, nil
}

// Login verifies credentials and returns a signed token. Each failure bumps
// the failed-login counter; crossing the threshold locks the account until
// an admin intervenes.
func (s *Service) Login(ctx context.Context, email, password string) (string, model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var id, hash string
	var locked, enabled bool
	var failed int
	err := s.pool.QueryRow(ctx,
		"select id, password_hash, locked, enabled, failed_logins from accounts where email = $1", email).
		Scan(&id, &hash, &locked, &enabled, &failed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.Account{}, apperr.New(apperr.BusinessRule, apperr.CodeUnauthorized, "invalid credentials")
		}
		return "", model.Account{}, apperr.Transientf(err, "load credentials")
	}
	if !enabled {
		return "", model.Account{}, apperr.New(apperr.BusinessRule, apperr.CodeAccountDisabled, "account is disabled")
	}
	if locked {
		return "", model.Account{}, apperr.New(apperr.BusinessRule, apperr.CodeAccountLocked, "account is locked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		failed++
		lockNow := failed >= maxFailedLogins
		_, uerr := s.pool.Exec(ctx, "update accounts set failed_logins = $1, locked = $2 where id = $3",
			failed, lockNow, id)
		if uerr != nil {
			s.log.Error().Err(uerr).Str("account_id", id).Msg("failed to record login failure")
		}
		if lockNow {
			return "", model.Account{}, apperr.New(apperr.BusinessRule, apperr.CodeAccountLocked,
				"account locked after repeated failed logins")
		}
		return "", model.Account{}, apperr.New(apperr.BusinessRule, apperr.CodeUnauthorized, "invalid credentials")
	}

	_, err = s.pool.Exec(ctx, "update accounts set failed_logins = 0, last_login_at = $1 where id = $2",
		time.Now().UTC(), id)
	if err != nil {
		return "", model.Account{}, apperr.Transientf(err, "record login")
	}

	acc, err := s.GetAccount(ctx, id)
	if err != nil {
		return "", model.Account{}, err
	}
	token, err := s.signToken(acc.ID, acc.Role)
	if err != nil {
		return "", model.Account{}, err
	}
	return token, acc, nil
}

func (s *Service) signToken(accountID string, role types.Role) (string, error) {
	now := time.Now().UTC()
	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", apperr.Transientf(err, "sign token")
	}
	return signed, nil
}

func (s *Service) ParseToken(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, apperr.New(apperr.BusinessRule, apperr.CodeUnauthorized, "invalid token")
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Issuer != s.issuer || c.Subject == "" {
		return Identity{}, apperr.New(apperr.BusinessRule, apperr.CodeUnauthorized, "invalid token")
	}
	role := types.Role(c.Role)
	if role != types.RoleAdmin {
		role = types.RoleTrader
	}
	return Identity{AccountID: c.Subject, Role: role}, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	var a model.Account
	var role, kyc string
	err := s.pool.QueryRow(ctx, `
		select id, email, username, account_number, role, enabled, locked, kyc_status,
		       total_balance, available_balance, failed_logins, last_login_at, created_at, updated_at
		from accounts where id = $1
	`, accountID).Scan(&a.ID, &a.Email, &a.Username, &a.AccountNumber, &role, &a.Enabled, &a.Locked, &kyc,
		&a.TotalBalance, &a.AvailableBalance, &a.FailedLogins, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, apperr.NotFoundf("account %s not found", accountID)
		}
		return a, apperr.Transientf(err, "load account")
	}
	a.Role = types.Role(role)
	a.KycStatus = types.KycStatus(kyc)
	return a, nil
}
