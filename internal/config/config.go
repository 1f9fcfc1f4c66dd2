package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr        string
	DBDSN           string
	JWTIssuer       string
	JWTSecret       string
	JWTTTL          time.Duration
	WebSocketOrigin string

	BrokerageRate  decimal.Decimal
	TransactionTax decimal.Decimal
	ServiceTaxRate decimal.Decimal

	MarketOpen  string
	MarketClose string

	RetryAttempts int
	RetryDelay    time.Duration

	PortfolioCacheTTL time.Duration
	SimulatorSpec     string

	OpeningBalance decimal.Decimal
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")

	var err error
	if c.BrokerageRate, err = rate("BROKERAGE_RATE", "0.0025"); err != nil {
		return c, err
	}
	if c.TransactionTax, err = rate("TRANSACTION_TAX_RATE", "0.001"); err != nil {
		return c, err
	}
	if c.ServiceTaxRate, err = rate("SERVICE_TAX_RATE", "0.18"); err != nil {
		return c, err
	}
	if c.OpeningBalance, err = rate("OPENING_BALANCE", "100000"); err != nil {
		return c, err
	}

	c.MarketOpen = envOr("MARKET_OPEN", "09:00")
	c.MarketClose = envOr("MARKET_CLOSE", "15:30")
	if _, err := time.Parse("15:04", c.MarketOpen); err != nil {
		return c, errors.New("invalid MARKET_OPEN: use HH:MM")
	}
	if _, err := time.Parse("15:04", c.MarketClose); err != nil {
		return c, errors.New("invalid MARKET_CLOSE: use HH:MM")
	}

	attempts := envOr("RETRY_ATTEMPTS", "3")
	n, err := strconv.Atoi(attempts)
	if err != nil || n < 1 {
		return c, errors.New("invalid RETRY_ATTEMPTS")
	}
	c.RetryAttempts = n
	delay := envOr("RETRY_DELAY", "200ms")
	d, err := time.ParseDuration(delay)
	if err != nil {
		return c, errors.New("invalid RETRY_DELAY")
	}
	c.RetryDelay = d

	ttl := envOr("PORTFOLIO_CACHE_TTL", "30s")
	if c.PortfolioCacheTTL, err = time.ParseDuration(ttl); err != nil {
		return c, errors.New("invalid PORTFOLIO_CACHE_TTL")
	}
	c.SimulatorSpec = envOr("SIMULATOR_SPEC", "@every 1m")

	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func rate(key, fallback string) (decimal.Decimal, error) {
	raw := envOr(key, fallback)
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return decimal.Zero, errors.New("invalid " + key)
	}
	return v, nil
}
