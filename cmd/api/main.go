package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sandeep-jaiswar/core/internal/accounts"
	"github.com/sandeep-jaiswar/core/internal/auth"
	"github.com/sandeep-jaiswar/core/internal/config"
	"github.com/sandeep-jaiswar/core/internal/db"
	"github.com/sandeep-jaiswar/core/internal/fees"
	"github.com/sandeep-jaiswar/core/internal/httpserver"
	"github.com/sandeep-jaiswar/core/internal/marketdata"
	"github.com/sandeep-jaiswar/core/internal/portfolio"
	"github.com/sandeep-jaiswar/core/internal/scheduler"
	"github.com/sandeep-jaiswar/core/internal/trading"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "trading-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unavailable")
	}
	defer pool.Close()

	hours, err := marketdata.ParseWindow(cfg.MarketOpen, cfg.MarketClose)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid market hours")
	}

	bus := marketdata.NewBus()
	marketStore := marketdata.NewStore(pool)
	if err := marketStore.EnsureSeed(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed market data")
	}

	accountStore := accounts.NewStore(pool)
	positionStore := portfolio.NewStore(pool)
	tradeStore := trading.NewStore(pool)

	calc := fees.NewCalculator(cfg.BrokerageRate, cfg.TransactionTax, cfg.ServiceTaxRate)
	portfolioSvc := portfolio.NewService(positionStore, marketStore, cfg.PortfolioCacheTTL, logger)
	validator := trading.NewValidator(hours)
	retrier := trading.NewRetrier(cfg.RetryAttempts, cfg.RetryDelay, logger)
	tradingSvc := trading.NewService(pool, tradeStore, accountStore, positionStore,
		marketStore, calc, validator, retrier, portfolioSvc, logger)
	authSvc := auth.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL,
		cfg.OpeningBalance, logger)

	marketWS := marketdata.NewWSHandler(bus, cfg.WebSocketOrigin, logger)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:      auth.NewHandler(authSvc),
		TradeHandler:     trading.NewHandler(tradingSvc),
		PortfolioHandler: portfolio.NewHandler(portfolioSvc),
		MarketHandler:    marketdata.NewHandler(marketStore, marketWS),
		AuthService:      authSvc,
		AllowedOrigins:   allowedOrigins(cfg.WebSocketOrigin),
	})

	sched := scheduler.New(logger)
	sim := marketdata.NewSimulator(marketStore, bus, hours, logger)
	if err := sched.AddJob(cfg.SimulatorSpec, sim); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule market simulator")
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func allowedOrigins(origin string) []string {
	if origin == "" {
		return []string{"*"}
	}
	parts := strings.Split(origin, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
