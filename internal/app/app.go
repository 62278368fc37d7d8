// Package app wires adapters, services and ports together from configuration.
package app

import (
	"errors"
	"fmt"

	"github.com/cashflow/payflow/internal/adapter/secondary/database"
	"github.com/cashflow/payflow/internal/adapter/secondary/memory"
	"github.com/cashflow/payflow/internal/adapter/secondary/messaging"
	"github.com/cashflow/payflow/internal/config"
	"github.com/cashflow/payflow/internal/constant/model/db"
	"github.com/cashflow/payflow/internal/core/service"
	"github.com/cashflow/payflow/internal/metrics"
	"github.com/cashflow/payflow/internal/port/output"
	"go.uber.org/zap"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Payments   *service.PaymentServiceImpl
	Dispatcher *service.Dispatcher

	closers []func() error
}

// New builds the store, event publishers and core services described by cfg.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(cfg.Metrics.Namespace),
	}

	repo, err := a.newRepository()
	if err != nil {
		a.Close()
		return nil, err
	}

	audit := memory.NewAuditLog()
	publishers := messaging.Fanout{audit}
	if cfg.Messaging.Enabled {
		client, err := messaging.NewRabbitMQClient(messaging.Config{
			URL:        cfg.Messaging.URL,
			Exchange:   cfg.Messaging.Exchange,
			Queue:      cfg.Messaging.Queue,
			RoutingKey: cfg.Messaging.RoutingKey,
		}, logger.Named("messaging"))
		if err != nil {
			a.Close()
			return nil, err
		}
		publishers = append(publishers, client)
	}
	a.closers = append(a.closers, publishers.Close)

	a.Payments = service.NewPaymentService(repo, publishers, logger.Named("payments"))
	a.Dispatcher = service.NewDispatcher(a.Payments, audit, a.Metrics, logger.Named("dispatcher"))

	logger.Info("payflow initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("messaging", cfg.Messaging.Enabled),
	)
	return a, nil
}

func (a *App) newRepository() (output.PaymentRepository, error) {
	switch a.Config.Store.Driver {
	case config.StorePostgres:
		conn, err := db.NewDB(a.Config.Database.DSN, db.Options{
			MaxOpenConns:    a.Config.Database.MaxOpenConns,
			MaxIdleConns:    a.Config.Database.MaxIdleConns,
			ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		return database.NewGormPaymentRepository(conn.DB), nil
	case config.StoreMemory:
		return memory.NewPaymentRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.Config.Store.Driver)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
