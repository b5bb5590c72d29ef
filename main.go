// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv(-env)            – read .env (no shell exports required)
//   2) initLogger()                – zap logger from LOG_LEVEL / LOG_DEV
//   3) cfg := loadConfigFromEnv()  – preset + POLICY_FILE + per-knob env
//   4) -replay: re-drive a journal through a fresh controller and exit
//   5) wire bridge (events) + gateway (bridge, or paper when DRY_RUN)
//   6) start Prometheus /healthz server on cfg.Port
//   7) runLive until SIGINT/SIGTERM or the bridge closes
//
// Flags:
//   -env <path>        .env file to load (default .env)
//   -replay <jsonl>    Replay a session journal and print a summary
//   -session <id>      Session to replay (default: first in the file)
//
// Example:
//   go run . -env /opt/readytrader/bot.env
//
// Notes:
//   - The exchange sidecar must be running for live mode (BRIDGE_URL in .env).
//   - DRY_RUN defaults to true: orders are recorded, never sent.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var envPath, replayPath, replaySession string
	flag.StringVar(&envPath, "env", ".env", "Path to the .env file")
	flag.StringVar(&replayPath, "replay", "", "Path to a session journal (JSONL) to replay")
	flag.StringVar(&replaySession, "session", "", "Session id to replay (default: first in journal)")
	flag.Parse()

	// ---- Environment, logging & config ----
	envErr := loadBotEnv(envPath)
	zl, err := initLogger(getEnv("LOG_LEVEL", "info"), getEnvBool("LOG_DEV", false))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	if envErr != nil {
		logger.Warnf("env: %s unreadable, relying on process env: %v", envPath, envErr)
	}

	cfg, err := loadConfigFromEnv()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if replayPath != "" {
		code := replayMain(ctx, replayPath, replaySession, cfg)
		cancel()
		_ = zl.Sync()
		os.Exit(code)
	}

	// ---- Gateway wiring ----
	session := uuid.New().String()
	journal := NewJournal(cfg.JournalFile, session)
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warnf("[JOURNAL] close: %v", err)
		}
	}()

	bridge := NewBridgeGateway(cfg.BridgeURL, cfg.EventBuffer, logger)
	bridge.ReadTimeout = cfg.BridgeReadTimeout
	bridge.PingInterval = cfg.BridgePing
	bridge.Start(ctx)
	defer bridge.Close()

	var gw Gateway = bridge
	if cfg.DryRun {
		gw = NewPaperGateway(logger)
	}
	trader := NewTrader(cfg, gw, journal, logger.With("session", session), nil)

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !bridge.Connected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("bridge down\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		logger.Infof("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	// ---- Run ----
	if err := runLive(ctx, trader, bridge); err != nil {
		logger.Errorf("live loop stopped: %v", err)
	}

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// replayMain runs -replay and returns the process exit code.
func replayMain(ctx context.Context, path, session string, cfg Config) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Errorf("replay: %v", err)
		return 1
	}
	defer f.Close()

	sum, err := runReplay(ctx, f, session, cfg, logger)
	if err != nil {
		logger.Errorf("replay: %v", err)
		return 1
	}
	logger.Infof("[REPLAY] session=%s events=%d commands=%d recorded=%d mismatches=%d position=%d next_id=%d",
		sum.Session, sum.Events, sum.Commands, sum.RecordedCommands, sum.Mismatches, sum.Position, sum.NextID)
	if !sum.Deterministic() {
		logger.Warnf("[REPLAY] replayed commands differ from the journal")
		return 2
	}
	return 0
}
