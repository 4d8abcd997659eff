package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zpqio/zpq/core/config"
	"github.com/zpqio/zpq/core/logger"
	"github.com/zpqio/zpq/core/queue"
	redisint "github.com/zpqio/zpq/integration/database/redis"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "zpq",
		Short:         "Priority task queue on a Redis sorted set",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("dev", false, "verbose text logging for local development")

	rootCmd.AddCommand(produceCmd(), consumeCmd(), statCmd(), purgeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		return logger.New(logger.WithDevelopment("zpq"))
	}
	return logger.New(logger.WithProduction("zpq"))
}

// openStore loads configuration, connects to Redis, and builds the store.
func openStore(ctx context.Context) (*queue.RedisStore, queue.Config, error) {
	var qcfg queue.Config
	if err := config.Load(&qcfg); err != nil {
		return nil, qcfg, err
	}

	var rcfg redisint.Config
	if err := config.Load(&rcfg); err != nil {
		return nil, qcfg, err
	}

	client, err := redisint.Connect(ctx, rcfg)
	if err != nil {
		return nil, qcfg, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store, err := queue.NewRedisStore(client, queue.WithQueueKey(qcfg.QueueKey))
	if err != nil {
		return nil, qcfg, err
	}

	return store, qcfg, nil
}

func produceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Generate tasks and insert them into the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := newLogger(cmd)

			store, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}

			if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
				cfg.ProduceInterval = interval
			}

			producer, err := queue.NewProducerFromConfig(cfg, store,
				queue.WithProducerLogger(log.With(logger.Component("producer"))),
			)
			if err != nil {
				return err
			}

			log.Info("starting producer", logger.Event("startup"),
				slog.String("queue_key", cfg.QueueKey),
				slog.Duration("interval", cfg.ProduceInterval))

			return producer.Run(ctx)()
		},
	}

	cmd.Flags().Duration("interval", 0, "time between produced tasks (overrides ZPQ_PRODUCE_INTERVAL)")

	return cmd
}

func consumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Take tasks from the queue and process them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := newLogger(cmd)

			store, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}

			processTime, _ := cmd.Flags().GetDuration("process-time")

			consumer, err := queue.NewConsumerFromConfig(cfg, store,
				queue.WithConsumerLogger(log.With(logger.Component("consumer"))),
			)
			if err != nil {
				return err
			}

			// Simulated work, standing in for the real side effects that
			// are outside the queue's scope.
			consumer.RegisterFallback(queue.NewHandler("default", func(ctx context.Context, e *queue.Envelope) error {
				log.Info("processing task",
					slog.Int64("id", e.ID),
					slog.String("type", e.Type),
					slog.String("priority", e.Priority.String()),
					slog.String("payload", e.Payload),
					slog.Time("created_at", e.CreatedAt))
				select {
				case <-time.After(processTime):
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}))

			log.Info("starting consumer", logger.Event("startup"),
				slog.String("queue_key", cfg.QueueKey),
				slog.Duration("poll_interval", cfg.PollInterval))

			return consumer.Run(ctx)()
		},
	}

	cmd.Flags().Duration("process-time", 2*time.Second, "simulated processing time per task")

	return cmd
}

func statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show queue size and the next task to be delivered",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}

			size, err := store.Size(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("queue %s: %d task(s)\n", cfg.QueueKey, size)

			next, err := store.PeekLowest(ctx)
			if err != nil {
				return err
			}
			if next == nil {
				fmt.Println("next: (empty)")
				return nil
			}

			fmt.Printf("next: id=%d type=%s priority=%s created_at=%s\n",
				next.ID, next.Type, next.Priority, next.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove all tasks from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}

			if err := store.Clear(ctx); err != nil {
				return err
			}

			fmt.Printf("queue %s purged\n", cfg.QueueKey)
			return nil
		},
	}
}
