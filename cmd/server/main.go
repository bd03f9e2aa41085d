package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"medboard/internal/activity"
	activityhandler "medboard/internal/activity/handler"
	activitykafka "medboard/internal/activity/kafka"
	activitypg "medboard/internal/activity/store/postgres"
	adminhandler "medboard/internal/admin/handler"
	adminservice "medboard/internal/admin/service"
	adminstore "medboard/internal/admin/store"
	blacklisthandler "medboard/internal/blacklist/handler"
	blacklistservice "medboard/internal/blacklist/service"
	blackliststore "medboard/internal/blacklist/store"
	blacklistindex "medboard/internal/blacklist/store/index"
	candidatehandler "medboard/internal/candidate/handler"
	candidateservice "medboard/internal/candidate/service"
	candidatestore "medboard/internal/candidate/store"
	doctorhandler "medboard/internal/doctor/handler"
	doctormetrics "medboard/internal/doctor/metrics"
	doctorservice "medboard/internal/doctor/service"
	doctorstore "medboard/internal/doctor/store/doctor"
	suspensionstore "medboard/internal/doctor/store/suspension"
	jwttoken "medboard/internal/jwt_token"
	"medboard/internal/platform/config"
	"medboard/internal/platform/httpserver"
	"medboard/internal/platform/logger"
	"medboard/internal/platform/postgres"
	"medboard/internal/platform/redis"
	httptransport "medboard/internal/transport/http"
)

// main wires dependencies and owns process lifecycle. Business logic lives in
// the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		return err
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	activityStore := activitypg.New(db)
	recorder := activity.NewRecorder(activityStore, log)

	blacklistOpts := []blacklistservice.Option{
		blacklistservice.WithLogger(log),
		blacklistservice.WithActivityRecorder(recorder),
	}
	if redisClient != nil {
		blacklistOpts = append(blacklistOpts, blacklistservice.WithIndex(blacklistindex.NewRedis(redisClient)))
	}
	blacklistSvc := blacklistservice.New(blackliststore.NewPostgres(db), blacklistOpts...)
	if err := blacklistSvc.WarmIndex(ctx); err != nil {
		log.Warn("fingerprint index warmup failed", "error", err)
	}

	doctors := doctorstore.NewPostgres(db)
	doctorSvc := doctorservice.New(doctors, suspensionstore.NewPostgres(db),
		doctorservice.WithLogger(log),
		doctorservice.WithMetrics(doctormetrics.New(registry)),
		doctorservice.WithStoreTx(newLifecyclePostgresTx(db)),
		doctorservice.WithBlacklist(blacklistSvc),
		doctorservice.WithActivityRecorder(recorder),
		doctorservice.WithSuspensionLimit(cfg.SuspensionLimit),
		doctorservice.WithTracing(),
	)

	candidateSvc := candidateservice.New(candidatestore.NewPostgres(db), doctors,
		candidateservice.WithLogger(log),
		candidateservice.WithBlacklist(blacklistSvc),
		candidateservice.WithActivityRecorder(recorder),
		candidateservice.WithRejectionLimit(cfg.RejectionLimit),
	)

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "medboard")
	adminSvc := adminservice.New(adminstore.NewPostgres(db), jwtSvc,
		adminservice.WithLogger(log),
		adminservice.WithActivityRecorder(recorder),
		adminservice.WithTokenTTL(cfg.TokenTTL),
	)
	if err := adminSvc.EnsureBootstrap(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		return err
	}

	adminH := adminhandler.New(adminSvc, log)

	healthChecks := map[string]httptransport.HealthCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Registry:  registry,
		Validator: jwttoken.NewMiddlewareAdapter(jwtSvc),
		Public: []httptransport.Registrar{
			httptransport.RegistrarFunc(adminH.RegisterPublic),
		},
		Protected: []httptransport.Registrar{
			doctorhandler.New(doctorSvc, log),
			candidatehandler.New(candidateSvc, log),
			blacklisthandler.New(blacklistSvc, log),
			activityhandler.New(recorder, log),
			adminH,
		},
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting medboard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.KafkaBrokers != "" {
		publisher, err := activitykafka.NewPublisher(ctx, strings.Split(cfg.KafkaBrokers, ","), cfg.ActivityTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		relay := activitykafka.NewRelay(activityStore, publisher, log)
		group.Go(func() error {
			return relay.Run(ctx)
		})
	} else {
		log.Info("kafka brokers not configured, activity outbox relay disabled")
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("medboard stopped")
	return nil
}
