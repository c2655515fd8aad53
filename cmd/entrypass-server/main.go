package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/entrypass/server/internal/config"
	"github.com/entrypass/server/internal/db"
	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/store/memory"
	sqlitestore "github.com/entrypass/server/internal/entrypass/store/sqlite"
	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/grpcapi"
	"github.com/entrypass/server/internal/httpapi"
	"github.com/entrypass/server/internal/ledger"
	"github.com/entrypass/server/internal/logging"
)

type ledgerStore interface {
	store.Ledger
	store.AccountStore
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "entrypass-server: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "entrypass-server: logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores
	var (
		ledgerSt ledgerStore
		vlog     store.VerificationLog
		ready    func(context.Context) error
	)
	switch cfg.DB.Driver {
	case "sqlite":
		conn, err := db.Open(ctx, db.Config{Path: cfg.DB.Path, Env: cfg.Env})
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer conn.Close()

		writer := db.NewWorker(conn)
		defer writer.Close()

		ledgerSt = sqlitestore.NewLedger(conn, writer)
		vlog = sqlitestore.NewVerificationLog(conn, writer)
		ready = conn.PingContext
		logger.Info("sqlite ledger opened", zap.String("path", cfg.DB.Path))

		if err := seedSQLite(ctx, cfg, conn); err != nil {
			return err
		}
	case "memory":
		mem := memory.NewLedger()
		ledgerSt = mem
		vlog = memory.NewVerificationLog()
		logger.Warn("using in-memory ledger; state is lost on exit")

		if err := seedMemory(ctx, cfg, mem); err != nil {
			return err
		}
	}

	// Events
	pub, err := events.Open(events.Config{
		Driver:       cfg.Events.Driver,
		AMQPURL:      cfg.Events.AMQPURL,
		AMQPExchange: cfg.Events.AMQPExchange,
		KafkaBrokers: cfg.Events.KafkaBrokers,
		KafkaTopic:   cfg.Events.KafkaTopic,
	}, logger)
	if err != nil {
		return fmt.Errorf("open events publisher: %w", err)
	}
	defer pub.Close()

	// Services
	clock := ledger.SystemClock()
	collections := service.NewCollectionManager(ledgerSt, clock, pub, logger)
	issuance := service.NewIssuanceEngine(ledgerSt, clock, pub, logger)
	verification := service.NewVerificationEngine(ledgerSt, vlog, clock, logger)
	revocation := service.NewRevocationEngine(ledgerSt, pub, logger)
	queries := service.NewQueries(ledgerSt)
	accounts := service.NewAccounts(ledgerSt, cfg.Ledger.AllowDeposits, logger)

	pruner := service.NewVerificationLogPruner(vlog, service.PrunerConfig{
		RetentionDays: cfg.Audit.RetentionDays,
		IntervalHours: cfg.Audit.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// Rate limiting
	var limiter httpapi.Limiter
	if cfg.Limit.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// The limiter fails open, so an unreachable Redis is not fatal.
			logger.Warn("redis unreachable at start-up", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		limiter = httpapi.NewRedisLimiter(rdb, cfg.Limit.Capacity, cfg.Limit.Rate)
	}

	// HTTP
	httpSrv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         cfg.HTTPAddr,
		Collections:  collections,
		Issuance:     issuance,
		Verification: verification,
		Revocation:   revocation,
		Queries:      queries,
		Accounts:     accounts,
		Limiter:      limiter,
		Ready:        ready,
	})

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	// gRPC
	var grpcSrv *grpcapi.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpcapi.NewServer(grpcapi.Dependencies{
			Logger:       logger,
			Collections:  collections,
			Issuance:     issuance,
			Verification: verification,
			Revocation:   revocation,
			Queries:      queries,
		})
		go func() {
			logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("grpc server error", zap.Error(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	return httpSrv.Shutdown(shutdownCtx)
}

// faucetAccounts normalizes the configured dev faucet addresses. Faucets
// never run in prod.
func faucetAccounts(cfg config.Config) ([]ledger.Address, error) {
	if cfg.Env != "dev" || cfg.Ledger.FaucetAmount == 0 {
		return nil, nil
	}
	out := make([]ledger.Address, 0, len(cfg.Ledger.FaucetAccounts))
	for _, s := range cfg.Ledger.FaucetAccounts {
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("faucet account %q: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

func seedSQLite(ctx context.Context, cfg config.Config, conn *sql.DB) error {
	addrs, err := faucetAccounts(cfg)
	if err != nil || len(addrs) == 0 {
		return err
	}
	hex := make([]string, len(addrs))
	for i, a := range addrs {
		hex[i] = a.String()
	}
	if err := db.SeedDev(ctx, conn, db.SeedDevOptions{
		FaucetAccounts: hex,
		FaucetAmount:   cfg.Ledger.FaucetAmount,
	}); err != nil {
		return fmt.Errorf("seed dev accounts: %w", err)
	}
	return nil
}

func seedMemory(ctx context.Context, cfg config.Config, l *memory.Ledger) error {
	addrs, err := faucetAccounts(cfg)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		if _, err := l.Deposit(ctx, a, cfg.Ledger.FaucetAmount); err != nil {
			return fmt.Errorf("seed dev account %s: %w", a, err)
		}
	}
	return nil
}
