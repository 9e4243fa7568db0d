package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/repository/memory"
	"github.com/mamadbah2/stockroom/internal/repository/mongodb"
	"github.com/mamadbah2/stockroom/internal/repository/sheets"
	"github.com/mamadbah2/stockroom/internal/repository/sqlstore"
	"github.com/mamadbah2/stockroom/internal/repository/store"
	supabasestore "github.com/mamadbah2/stockroom/internal/repository/supabase"
	"github.com/mamadbah2/stockroom/internal/scheduler"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
	"github.com/mamadbah2/stockroom/internal/server/router"
	authsvc "github.com/mamadbah2/stockroom/internal/service/auth"
	"github.com/mamadbah2/stockroom/internal/service/inventory"
	notifysvc "github.com/mamadbah2/stockroom/internal/service/notify"
	productsvc "github.com/mamadbah2/stockroom/internal/service/products"
	reportingsvc "github.com/mamadbah2/stockroom/internal/service/reporting"
	shoppingsvc "github.com/mamadbah2/stockroom/internal/service/shopping"
	stocksvc "github.com/mamadbah2/stockroom/internal/service/stock"
	"github.com/mamadbah2/stockroom/internal/users"
	"github.com/mamadbah2/stockroom/pkg/clients/supabase"
	whatsappclient "github.com/mamadbah2/stockroom/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockroom/pkg/logger"
	"github.com/mamadbah2/stockroom/pkg/qr"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var supabaseClient *supabase.Client
	if cfg.Supabase.URL != "" {
		supabaseClient = supabase.NewClient(cfg.Supabase)
	}

	recordStore, err := openStore(context.Background(), cfg, supabaseClient)
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		if err := recordStore.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close record store", zap.Error(err))
		}
	}()
	baseLogger.Info("record store ready", zap.String("backend", cfg.Store.Backend))

	appMetrics := metrics.New()

	mode, err := stocksvc.ParseConcurrency(cfg.Stock.Concurrency)
	if err != nil {
		baseLogger.Fatal("invalid stock concurrency", zap.Error(err))
	}

	catalog := inventory.NewCatalog(recordStore, appMetrics, baseLogger.Named("svc.inventory"))
	if err := catalog.Load(context.Background()); err != nil {
		baseLogger.Warn("initial catalog load failed", zap.Error(err))
	}

	stockSvc := stocksvc.NewService(recordStore, appMetrics, baseLogger.Named("svc.stock"),
		stocksvc.WithConcurrency(mode), stocksvc.WithMaxAttempts(cfg.Stock.MaxAttempts))
	productSvc := productsvc.NewService(recordStore, recordStore, baseLogger.Named("svc.products"))
	shoppingSvc := shoppingsvc.NewService(recordStore, catalog, cfg.Stock.LowStockThreshold, baseLogger.Named("svc.shopping"))

	var (
		resolver authsvc.Resolver
		provider authsvc.Provider
	)
	if cfg.Auth.Disabled {
		resolver = authsvc.StaticResolver{Email: cfg.Auth.DemoUser}
		baseLogger.Warn("authentication disabled, every request acts as the demo user", zap.String("email", cfg.Auth.DemoUser))
	} else {
		resolver = authsvc.NewTokenResolver(cfg.Supabase.JWTSecret)
		provider = supabaseClient
	}
	authService := authsvc.NewService(provider, resolver, cfg.Auth.RedirectURL, baseLogger.Named("svc.auth"))

	var messenger *notifysvc.WhatsAppMessenger
	if cfg.WhatsApp.Enabled() {
		messenger = notifysvc.NewWhatsAppMessenger(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.Recipient, baseLogger.Named("svc.notify"))
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		messenger = notifysvc.NewWhatsAppMessenger(nil, "", baseLogger.Named("svc.notify"))
		baseLogger.Warn("whatsapp token missing, notifications disabled")
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Warn("spreadsheet id missing, inventory export disabled")
	}
	reportingSvc := reportingsvc.NewService(catalog, shoppingSvc, sheetsRepo, baseLogger.Named("svc.reporting"))

	directory := users.Parse(cfg.Users.Directory)
	renderer := qr.PNGRenderer{}

	engine := router.New(router.Handlers{
		Auth:     handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Products: handlers.NewProductHandler(catalog, productSvc, stockSvc, directory, renderer, baseLogger.Named("handlers.products")),
		Shopping: handlers.NewShoppingHandler(shoppingSvc, baseLogger.Named("handlers.shopping")),
		Labels:   handlers.NewLabelHandler(catalog, renderer, baseLogger.Named("handlers.labels")),
		Notify:   handlers.NewNotifyHandler(messenger, baseLogger.Named("handlers.notify")),
	}, resolver, appMetrics, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, messenger, catalog, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("stock_concurrency", string(mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, client *supabase.Client) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendSupabase:
		if client == nil {
			return nil, errors.New("supabase client is not configured")
		}
		return supabasestore.NewStore(client), nil
	case config.BackendMongoDB:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	case config.BackendPostgres:
		return sqlstore.Open(ctx, sqlstore.Postgres, cfg.Postgres.DSN)
	case config.BackendSQLite:
		return sqlstore.Open(ctx, sqlstore.SQLite, cfg.SQLite.Path)
	case config.BackendMemory:
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}
