package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"edulift.app/membership/common/id"
	"edulift.app/membership/common/logger"
	"edulift.app/membership/common/otel"
	"edulift.app/membership/core/config"
	"edulift.app/membership/core/db"
	"edulift.app/membership/internal/mail"
	"edulift.app/membership/internal/queue"
	"edulift.app/membership/internal/service"
	"edulift.app/membership/internal/store"
	"edulift.app/membership/internal/worker"
)

const maxAttempts = 3

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "membership worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.Group,
		"consumer_name", cfg.Queue.Consumer,
		"sweep_interval", cfg.Invitations.ExpirySweepInterval)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.Stream,
		Group:        cfg.Queue.Group,
		Consumer:     cfg.Queue.Consumer,
		DLQStream:    cfg.Queue.DLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  maxAttempts,
		RequeueDelay: 2 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	sender := mail.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.ResendURL, cfg.Email.From, nil)

	w := worker.New(consumer, sender, worker.Config{MaxAttempts: maxAttempts})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Queue.Stream,
		Group:     cfg.Queue.Group,
		Consumer:  cfg.Queue.Consumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w.Handle)

	// The worker neither broadcasts nor mails from the service layer.
	services := service.NewServices(
		store.NewStores(database.Queries()),
		service.NewTxRunner(database),
		nil,
		nil,
		cfg.Invitations,
		cfg.DashboardURL,
	)
	reaperLoop := worker.NewReaperLoop(services.Reaper(), cfg.Invitations.ExpirySweepInterval)

	errCh := make(chan error, 3)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()
	go func() {
		reaperLoop.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop the quick loops first; the worker may be mid-send.
	reaperLoop.Stop()
	reclaimer.Stop()
	w.Stop()

	for pending := 3; pending > 0; {
		select {
		case <-shutdownCtx.Done():
			slog.WarnContext(ctx, "shutdown timeout exceeded")
			pending = 0
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
			}
			pending--
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 _____    _       _     _  __ _
| ____|__| |_   _| |   (_)/ _| |_
|  _| / _' | | | | |   | | |_| __|
| |__| (_| | |_| | |___| |  _| |_
|_____\__,_|\__,_|_____|_|_|  \__|  membership worker
`
