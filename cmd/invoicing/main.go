package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	activitypg "cartbill/ms_invoicing_core/internal/adapters/activity/postgres"
	auditpg "cartbill/ms_invoicing_core/internal/adapters/audit/postgres"
	"cartbill/ms_invoicing_core/internal/adapters/billing/billingo"
	"cartbill/ms_invoicing_core/internal/adapters/events/kafka"
	healthhttp "cartbill/ms_invoicing_core/internal/adapters/http/health"
	invoicehttp "cartbill/ms_invoicing_core/internal/adapters/http/invoice"
	ledgerpg "cartbill/ms_invoicing_core/internal/adapters/ledger/postgres"
	orderpg "cartbill/ms_invoicing_core/internal/adapters/order/postgres"
	apphealth "cartbill/ms_invoicing_core/internal/application/health"
	appinvoice "cartbill/ms_invoicing_core/internal/application/invoice"
	"cartbill/ms_invoicing_core/internal/application/partner"
	"cartbill/ms_invoicing_core/internal/core/billing"
	"cartbill/ms_invoicing_core/internal/infrastructure/cache"
	"cartbill/ms_invoicing_core/internal/infrastructure/config"
	"cartbill/ms_invoicing_core/internal/infrastructure/database"
	nethttp "cartbill/ms_invoicing_core/internal/infrastructure/http"
	"cartbill/ms_invoicing_core/internal/infrastructure/http/middleware"
	"cartbill/ms_invoicing_core/internal/infrastructure/http/server"
	"cartbill/ms_invoicing_core/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database ready", "database", cfg.Database.Database)

	auditRepo := auditpg.NewRepository(pool)
	tracedClient := nethttp.NewTracedClient(&nethttp.TracedClientConfig{
		Timeout:         cfg.Billingo.APITimeout,
		AuditEnabled:    cfg.Audit.Enabled,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
	}, log, auditRepo, "billingo")

	provider := billingo.NewClient(cfg.Billingo.BaseURL, cfg.Billingo.APIKey, tracedClient, log)
	resolver := partner.NewResolver(provider, log)

	orders := orderpg.NewRepository(pool, log)
	ledgerRepo := ledgerpg.NewRepository(pool, log)
	activityRepo := activitypg.NewRepository(pool, log)

	var pdfCache appinvoice.PDFCache
	if cfg.PDFCache.Enabled {
		fsCache, err := cache.NewPDFCache(cfg.PDFCache.Dir)
		if err != nil {
			return fmt.Errorf("init pdf cache: %w", err)
		}
		pdfCache = fsCache
	}

	invoiceService := appinvoice.NewService(
		orders,
		provider,
		resolver,
		ledgerRepo,
		activityRepo,
		pdfCache,
		appinvoice.Settings{
			DocumentBlockID:    cfg.Invoicing.DocumentBlockID,
			Language:           cfg.Invoicing.Language,
			ElectronicInvoice:  cfg.Invoicing.ElectronicInvoice,
			PaymentMethodLabel: cfg.Invoicing.PaymentMethodLabel,
			QuantityUnit:       cfg.Invoicing.QuantityUnit,
			ShippingTitle:      cfg.Invoicing.ShippingTitle,
			ShippingVATRate:    cfg.Invoicing.ShippingVATRate,
			CreateZeroInvoice:  cfg.Invoicing.CreateZeroInvoice,
			ValidateTaxNumber:  cfg.Invoicing.ValidateTaxNumber,
		},
		log,
	)

	if cfg.Events.Enabled {
		consumer := kafka.NewConsumer(kafka.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
			GroupID: cfg.Events.GroupID,
		}, invoiceService, log)
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("event consumer stopped", "error", err)
			}
		}()
		log.Info("event consumer started",
			"topic", cfg.Events.Topic,
			"group_id", cfg.Events.GroupID,
		)
	}

	healthService := apphealth.NewService(
		apphealth.Metadata{
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		},
		apphealth.Check{Name: "postgres", Probe: pool.Ping},
		apphealth.Check{
			Name: "billingo",
			Probe: func(ctx context.Context) error {
				_, err := provider.GetDocumentBlocks(ctx, billing.DocumentTypeInvoice)
				return err
			},
		},
	)

	var auth *middleware.JWTAuthenticator
	if cfg.Auth.Enabled {
		auth, err = middleware.NewJWTAuthenticator(cfg.Auth, log)
		if err != nil {
			return fmt.Errorf("init jwt authenticator: %w", err)
		}
		defer auth.Close()
	}

	srv, err := server.New(server.Options{
		HTTP:    cfg.HTTP,
		Logger:  log,
		Health:  healthhttp.NewHandler(healthService),
		Invoice: invoicehttp.NewHandler(invoiceService, activityRepo, log),
		Auth:    auth,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("starting http server", "port", cfg.HTTP.Port)
	return srv.Run(ctx)
}
