package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashflow/payflow/internal/adapter/secondary/database"
	"github.com/cashflow/payflow/internal/adapter/secondary/messaging"
	"github.com/cashflow/payflow/internal/config"
	"github.com/cashflow/payflow/internal/constant/model/db"
	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/core/service"
	"github.com/cashflow/payflow/internal/logger"
	"github.com/cashflow/payflow/internal/port/output"
	"go.uber.org/zap"
)

// The worker drains transition events from RabbitMQ into the structured
// log and, with the postgres store, into the payment_events table, giving
// an audit sink that outlives the CLI or API process.
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

	msgClient, err := messaging.NewRabbitMQClient(messaging.Config{
		URL:        cfg.Messaging.URL,
		Exchange:   cfg.Messaging.Exchange,
		Queue:      cfg.Messaging.Queue,
		RoutingKey: cfg.Messaging.RoutingKey,
	}, log.Named("messaging"))
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer msgClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink output.EventPublisher
	if cfg.Store.Driver == config.StorePostgres {
		conn, err := db.NewDB(cfg.Database.DSN, db.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer conn.Close()
		sink = database.NewGormEventLog(conn.DB)
	}

	processor := service.NewEventProcessor(sink, log.Named("audit"))
	err = msgClient.ConsumeTransitionEvents(ctx, func(event core.TransitionEvent) error {
		return processor.ProcessEvent(ctx, event)
	})
	if err != nil {
		log.Fatal("failed to start consuming messages", zap.Error(err))
	}

	log.Info("audit worker started, press CTRL+C to exit")
	<-ctx.Done()
	log.Info("shutting down worker")
}
