package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/audit"
	"github.com/signa-app/trademark-console/internal/auth"
	"github.com/signa-app/trademark-console/internal/brands"
	"github.com/signa-app/trademark-console/internal/config"
	"github.com/signa-app/trademark-console/internal/db"
	"github.com/signa-app/trademark-console/internal/httpserver"
	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/metrics"
	"github.com/signa-app/trademark-console/internal/mykafka"
	"github.com/signa-app/trademark-console/internal/registration"
	"github.com/signa-app/trademark-console/internal/session"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, os.Stdout).With("service", "trademark-console")
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	tokens, closeStore := openTokenStore(ctx, cfg)
	defer closeStore()

	apiMetrics := metrics.NewAPI()
	if err := apiMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("metrics register: %v", err)
	}

	client := apiclient.NewClient(cfg.APIBaseURL, tokens,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithMetrics(apiMetrics),
	)

	nav := auth.ContextNavigator{Next: auth.NavigatorFunc(func(ctx context.Context, route string) {
		logging.FromContext(ctx).Info("navigate", "route", route)
	})}

	collection := brands.NewCollection(brands.NewAPI(client), cfg.DashboardPageSize)
	auditAPI := audit.NewAPI(client)
	engine := audit.NewEngine(auditAPI, cfg.AuditFetchLimit, cfg.AuditPageSize)
	wizard := registration.New(collection, nav)

	opts := []auth.Option{
		auth.WithNavigator(nav),
		auth.WithLoginEndpoint(cfg.AuthEndpoint),
		auth.OnSessionEnd(collection.Reset),
		auth.OnSessionEnd(engine.Reset),
		auth.OnSessionEnd(wizard.Reset),
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer producer.Close()
		opts = append(opts, auth.WithEvents(producer, cfg.KafkaSessionTopic))
	}
	orchestrator := auth.New(client, tokens, opts...)
	orchestrator.Restore(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		SessionHandler:      &httpserver.SessionHTTP{AppName: cfg.AppName, Auth: orchestrator},
		BrandsHandler:       &httpserver.BrandsHTTP{Brands: collection, History: auditAPI, HistorySize: cfg.AuditFetchLimit},
		AuditHandler:        &httpserver.AuditHTTP{Engine: engine},
		RegistrationHandler: &httpserver.RegistrationHTTP{Wizard: wizard},
		Navigator:           nav,
		Gatherer:            prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.APITimeout + 15*time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("console listening", "addr", srv.Addr, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	logger.Info("console stopped")
}

// openTokenStore falls back to a process-local store when the DSN is "none".
func openTokenStore(ctx context.Context, cfg *config.Config) (session.Store, func()) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(openCtx, cfg.TokenStoreDSN)
	if errors.Is(err, db.ErrNoStorage) {
		logging.FromContext(ctx).Warn("token_store_memory", "reason", "no persistent storage configured")
		return session.NewMemoryStore(), func() {}
	}
	if err != nil {
		log.Fatalf("token store open: %v", err)
	}
	return session.NewGormStore(gdb, cfg.TokenStorageKey), func() { _ = db.Close(gdb) }
}
