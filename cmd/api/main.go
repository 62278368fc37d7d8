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

	httpadapter "github.com/cashflow/payflow/internal/adapter/primary/http"
	"github.com/cashflow/payflow/internal/app"
	"github.com/cashflow/payflow/internal/config"
	"github.com/cashflow/payflow/internal/logger"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("api server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// Initialize secondary adapters and core services
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// Initialize primary adapter: HTTP handler (uses input ports)
	handler := httpadapter.NewPaymentHandler(a.Payments, a.Dispatcher)
	e := httpadapter.NewRouter(handler, a.Metrics)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", zap.String("address", cfg.Server.Address))
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}
