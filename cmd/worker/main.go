// Package main is the entry point for the Attendance Hub worker.
//
// The worker keeps the attendance views warm so teachers never wait on
// the institute server during class:
// - Periodic refresh of the rolling attendance aggregate
// - Daily low attendance scan after the last class slot
// - Session catalog warm-up for the current school day
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coaching-hub/attendance-hub/config"
	"github.com/coaching-hub/attendance-hub/internal/application/query"
	"github.com/coaching-hub/attendance-hub/internal/application/view"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
	"github.com/coaching-hub/attendance-hub/internal/infrastructure/external/institute"
	"github.com/coaching-hub/attendance-hub/internal/infrastructure/messaging"
	rediscache "github.com/coaching-hub/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/coaching-hub/attendance-hub/internal/infrastructure/scheduler"
	"github.com/coaching-hub/attendance-hub/internal/infrastructure/scheduler/jobs"
	"github.com/coaching-hub/attendance-hub/internal/infrastructure/service"
	"github.com/coaching-hub/attendance-hub/pkg/circuitbreaker"
	"github.com/coaching-hub/attendance-hub/pkg/logger"
	"github.com/coaching-hub/attendance-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.Setup(logger.Options{
		Level:  cfg.Observability.LogLevel,
		Format: logger.Format(cfg.Observability.LogFormat),
	})
	log.Info("starting Attendance Hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. INSTITUTE API CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := institute.DefaultClientConfig(cfg.Institute.BaseURL, cfg.Institute.APIToken)
	clientCfg.Timeout = cfg.Institute.RequestTimeout
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug
	clientCfg.RateLimiterConfig.RequestsPerSecond = cfg.Institute.RateLimit
	clientCfg.RateLimiterConfig.BurstSize = cfg.Institute.RateLimitBurst
	clientCfg.Retrier = retry.New(
		retry.WithMaxAttempts(cfg.Institute.MaxRetries),
		retry.WithInitialDelay(cfg.Institute.RetryBaseDelay),
		retry.WithMaxDelay(cfg.Institute.RetryMaxDelay),
	)
	clientCfg.Breaker = circuitbreaker.New(
		"institute-api",
		circuitbreaker.WithFailureThreshold(cfg.Institute.CircuitBreakerThreshold),
		circuitbreaker.WithTimeout(cfg.Institute.CircuitBreakerTimeout),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
	)
	client := institute.NewClient(clientCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS CACHES (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		sessionCache *rediscache.SessionCache
		statsCache   *rediscache.StatisticsCache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...", "host", cfg.Redis.Host, "port", cfg.Redis.Port)
		cache, err := rediscache.NewCache(rediscache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer func() {
				log.Info("closing Redis connection...")
				_ = cache.Close()
			}()
			sessionCache = rediscache.NewSessionCache(cache, cfg.Redis.SessionsTTL)
			statsCache = rediscache.NewStatisticsCache(cache, cfg.Redis.StatisticsTTL, cfg.Redis.AlertsTTL)
			log.Info("Redis connection established")
		}
	} else {
		log.Info("Redis disabled, running without cache")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. DOMAIN SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	var sessionSource session.Source = service.NewSessionSourceAdapter(client)
	if sessionCache != nil {
		sessionSource = service.NewCachedSessionSource(sessionSource, sessionCache, log)
	}
	records := service.NewRecordSourceAdapter(client, log)

	catalog := session.NewCatalog()
	aggregator := statistics.NewAggregator()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS AND VIEW COORDINATOR
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.AsyncMode = true
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	coordinator := view.NewCoordinator(log)
	if err := coordinator.Subscribe(bus); err != nil {
		return fmt.Errorf("failed to subscribe view coordinator: %w", err)
	}
	coordinator.OnChange(func(snap view.Snapshot) {
		log.Debug("view state changed", "view", snap.View.String(), "date", snap.Date.String())
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SESSION CATALOG WARM-UP
	// ─────────────────────────────────────────────────────────────────────────
	sessions := query.NewGetSessionsHandler(sessionSource, catalog, bus, log)

	warmupCtx, warmupCancel := context.WithTimeout(ctx, cfg.Institute.RequestTimeout)
	if result, err := sessions.Handle(warmupCtx, query.GetSessionsQuery{}); err != nil {
		log.Warn("session catalog warm-up failed", "error", err)
	} else {
		log.Info("session catalog warmed",
			"date", result.Date,
			"sessions", result.Total,
			"marked", result.Marked,
		)
	}
	warmupCancel()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER AND JOBS
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	refreshJob := jobs.NewRefreshStatisticsJob(
		records, records, aggregator, statsCache, bus, log,
		jobs.RefreshStatisticsConfig{
			WindowDays:          cfg.Attendance.StatisticsWindowDays,
			UseServerAggregates: true,
		},
	)
	if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshStatisticsInterval)); err != nil {
		return fmt.Errorf("failed to register %s: %w", refreshJob.Name(), err)
	}

	if cfg.Features.IsEnabled(config.FeatureStatisticsAlerts, nil) {
		scanJob := jobs.NewLowAttendanceScanJob(
			records, records, statsCache, bus, log,
			jobs.LowAttendanceScanConfig{
				Threshold:           cfg.Attendance.LowAttendanceThreshold,
				WindowDays:          cfg.Attendance.AlertWindowDays,
				MaxAlerts:           cfg.Attendance.MaxAlerts,
				UseServerAggregates: true,
			},
		)
		scanSchedule := scheduler.NewDailySchedule(cfg.Scheduler.LowAttendanceScanHour, cfg.Scheduler.LowAttendanceScanMinute)
		if err := sched.Register(scanJob, scanSchedule); err != nil {
			return fmt.Errorf("failed to register %s: %w", scanJob.Name(), err)
		}
	} else {
		log.Info("low attendance scan disabled by feature flag")
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		// The statistics view should open on warm data right after boot.
		if _, err := sched.RunNow(ctx, refreshJob.Name()); err != nil {
			log.Warn("initial statistics refresh failed", "job", refreshJob.Name(), "error", err)
		}
	} else {
		log.Info("scheduler disabled, background jobs will not run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Attendance Hub worker is running",
		"scheduler_enabled", cfg.Scheduler.Enabled,
		"refresh_interval", cfg.Scheduler.RefreshStatisticsInterval.String(),
		"scan_time", fmt.Sprintf("%02d:%02d", cfg.Scheduler.LowAttendanceScanHour, cfg.Scheduler.LowAttendanceScanMinute),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownTimer := time.AfterFunc(cfg.App.ShutdownTimeout, func() {
		fmt.Fprintln(os.Stderr, "graceful shutdown timed out")
		os.Exit(1)
	})
	defer shutdownTimer.Stop()

	return nil
}
