package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/config"
	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
	httpapi "foodcourt-backoffice/internal/http"
	"foodcourt-backoffice/internal/http/handlers"
	"foodcourt-backoffice/internal/identity"
	"foodcourt-backoffice/internal/jobs"
	"foodcourt-backoffice/internal/logger"
	"foodcourt-backoffice/internal/orders"
	"foodcourt-backoffice/internal/payments"
	"foodcourt-backoffice/internal/queue"
	"foodcourt-backoffice/internal/workforce"
	"foodcourt-backoffice/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without broker", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := qc.EnsureTopology(); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without broker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		queueClient = qc
		if queueClient != nil {
			defer queueClient.Close()
			log.Info("rabbitmq enabled", zap.String("exchange", queue.EventsExchange))
		}
	}

	pspA := payments.NewPSPA(cfg.PSPASecret, os.Getenv("PSP_A_BASE_URL"), cfg.ProviderTimeout)
	pspB := payments.NewPSPB(cfg.PSPBShopID, cfg.PSPBSecret, os.Getenv("PSP_B_BASE_URL"), cfg.ProviderTimeout)

	broker := &payments.Broker{
		Pool:   pool,
		Logger: log,
		Adapters: map[domain.PaymentMethod]payments.Adapter{
			domain.MethodCardPSPA: pspA,
			domain.MethodCardPSPB: pspB,
		},
		Providers: map[string]payments.Adapter{
			"pspa": pspA,
			"pspb": pspB,
		},
		PublicBaseURL: cfg.PublicBaseURL,
		Timeout:       cfg.ProviderTimeout,
	}

	engine := &orders.Engine{Pool: pool, Logger: log, Refunder: broker}
	ledger := &workforce.Ledger{Pool: pool, Logger: log}
	oracle := &identity.Oracle{
		Pool:           pool,
		Logger:         log,
		ProviderSecret: cfg.SessionSecret,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         time.Duration(cfg.JWTExpirySeconds) * time.Second,
	}

	wsServer := ws.New(pool, log)

	dispatcher := events.NewDispatcher(pool, log, queueClient, cfg.OutboxPollInterval, uuid.NewString())
	dispatcher.Subscribe(wsServer.HandleEvent)
	go dispatcher.Run(ctx)

	ticker := jobs.NewTicker(log, cfg.TickerInterval)
	ticker.Register("missed-shift-sweeper", func(ctx context.Context) error {
		_, err := ledger.SweepMissedShifts(ctx, cfg.SweeperGrace)
		return err
	})
	go ticker.Run(ctx)

	h := &handlers.Handler{
		DB:        pool,
		Logger:    log,
		Config:    cfg,
		Identity:  oracle,
		Orders:    engine,
		Payments:  broker,
		Workforce: ledger,
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(pool, log, cfg, h, wsServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
