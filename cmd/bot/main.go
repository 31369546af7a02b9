// Package main runs the copy-trading bot: ledger monitoring, mirroring,
// outcome history, and the management HTTP API in one process.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/api"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/bot"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/history"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/observability"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/policy"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/solana"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
	chstore "github.com/ledgerwave/Solana-Trading-Bot/internal/storage/clickhouse"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage/memory"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage/migrations"
	pgstore "github.com/ledgerwave/Solana-Trading-Bot/internal/storage/postgres"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/wallet"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional analytics sink)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":8080"), "Management HTTP address")
	targetWallets := flag.String("target-wallets", os.Getenv("TARGET_WALLETS"), "Comma-separated wallet addresses to seed")
	minAmount := flag.Float64("min-amount-sol", envFloat("MIN_AMOUNT_SOL", 0), "Skip transactions below this SOL amount")
	maxAmount := flag.Float64("max-amount-sol", envFloat("MAX_AMOUNT_SOL", 0), "Skip transactions above this SOL amount")
	copyRatio := flag.Float64("copy-ratio", envFloat("COPY_RATIO", 1.0), "Scale factor applied to mirrored amounts")
	autoStart := flag.Bool("auto-start", true, "Start monitoring immediately")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)

	// Validate required configuration
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// The signing credential comes from the environment only, never a flag.
	secret := os.Getenv("BOT_SECRET_KEY")
	if secret == "" {
		logger.Fatal("BOT_SECRET_KEY is required")
	}
	signer, err := wallet.FromBase58Secret(secret)
	if err != nil {
		logger.Fatalf("invalid BOT_SECRET_KEY: %v", err)
	}
	logger.Printf("[main] bot account %s", signer.Address())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores
	var (
		accountStore storage.WatchedAccountStore
		outcomeStore storage.OutcomeStore
	)
	if *useMemory {
		logger.Printf("[main] using in-memory storage")
		accountStore = memory.NewAccountStore()
		outcomeStore = memory.NewOutcomeStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		accountStore = pgstore.NewAccountStore(pool)
		outcomeStore = pgstore.NewOutcomeStore(pool)
	}

	var recorderOpts []history.RecorderOption
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse: %v", err)
		}
		defer conn.Close()
		recorderOpts = append(recorderOpts, history.WithEventSink(chstore.NewOutcomeEventStore(conn)))
		logger.Printf("[main] clickhouse analytics sink enabled")
	}
	recorder := history.NewRecorder(outcomeStore, logger, recorderOpts...)

	// Gateways
	rpcClient := solana.NewHTTPClient(*rpcEndpoint)
	wsClient, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
	if err != nil {
		logger.Fatalf("websocket: %v", err)
	}
	defer wsClient.Close()

	mgr := bot.NewManager(bot.Deps{
		RPC:      rpcClient,
		WS:       wsClient,
		Accounts: accountStore,
		Recorder: recorder,
		Signer:   signer,
		Logger:   logger,
	}, bot.Config{
		SeedAccounts: splitList(*targetWallets),
		Policy: policy.Config{
			MinAmountSOL: *minAmount,
			MaxAmountSOL: *maxAmount,
			CopyRatio:    *copyRatio,
		},
	})

	if err := mgr.Init(ctx); err != nil {
		logger.Fatalf("init: %v", err)
	}
	if *autoStart {
		if err := mgr.Start(ctx); err != nil {
			logger.Fatalf("start: %v", err)
		}
	}

	// Management HTTP server
	httpSrv := &http.Server{
		Addr:    *httpAddr,
		Handler: api.NewServer(mgr, logger).Routes(),
	}
	go func() {
		logger.Printf("[main] management API on %s", *httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("[main] http server error: %v", err)
		}
	}()

	// Uptime counter
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	<-ctx.Done()
	logger.Printf("[main] shutting down")

	mgr.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("[main] http shutdown: %v", err)
	}

	logger.Printf("[main] bye")
}

// envOr returns the environment value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envFloat parses a float environment value, falling back on a default.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
