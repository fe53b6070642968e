package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"btclend/config"
	"btclend/native/lending"
	"btclend/observability/logging"
	"btclend/rpc"
	"btclend/state"
	"btclend/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("BTCLEND_ENV"))
	logger := logging.Setup("btclendd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	owner, err := cfg.Owner()
	if err != nil {
		logger.Error("invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}

	engine := lending.NewEngine(owner, cfg.Lending.RiskParameters())
	engine.SetState(state.New(db))

	operators, err := cfg.OperatorAddresses()
	if err != nil {
		logger.Error("invalid operator address", slog.Any("error", err))
		os.Exit(1)
	}
	for _, operator := range operators {
		if err := engine.AddOperator(owner, operator); err != nil {
			logger.Error("failed to register operator", slog.String("operator", operator.String()), slog.Any("error", err))
			os.Exit(1)
		}
	}

	rpcServer := rpc.NewServer(engine, logger)
	rpcServer.SetRateLimit(cfg.RPCRatePerMin, cfg.RPCRateBurst)
	rpcErrCh := make(chan error, 1)
	go func() {
		rpcErrCh <- rpcServer.Start(cfg.RPCAddress)
	}()

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics server terminated", slog.Any("error", err))
			}
		}()
	}

	logger.Info("lending ledger initialised and running",
		slog.String("rpc", cfg.RPCAddress),
		slog.String("owner", owner.String()),
		slog.Int("operators", len(operators)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-rpcErrCh:
		logger.Error("RPC server terminated", slog.Any("error", err))
	}
	db.Close()
}
