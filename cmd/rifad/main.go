package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/joanvup/rifa-app/cache/redis"
	"github.com/joanvup/rifa-app/config"
	"github.com/joanvup/rifa-app/events/kafka"
	"github.com/joanvup/rifa-app/logging"
	"github.com/joanvup/rifa-app/raffle"
	"github.com/joanvup/rifa-app/server"
	"github.com/joanvup/rifa-app/storage"
	"github.com/joanvup/rifa-app/storage/memory"
	"github.com/joanvup/rifa-app/storage/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configFile string

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "rifad",
		Short:   "Raffle ticket book service",
		Version: version(),
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging)

			defaults, err := cfg.Raffle.Settings()
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), cfg, defaults, logger)
			if err != nil {
				return err
			}

			var reports server.SettlementCache
			var closeCache func()
			if cfg.Redis.Addr != "" {
				client, err := redis.New(cfg.Redis)
				if err != nil {
					closeStore()
					return err
				}
				reports = redis.NewReportCache(client, cfg.Redis.ReportTTL)
				closeCache = func() {
					if err := client.Close(); err != nil {
						logger.Error().Err(err).Msg("Error closing redis client")
					}
				}
				logger.Info().Str("addr", cfg.Redis.Addr).Msg("Settlement report cache enabled")
			}

			producer, err := kafka.NewProducer(kafka.ProducerConfig{
				Brokers:   cfg.Kafka.Brokers,
				Logger:    logger,
				WorkerNum: cfg.Kafka.WorkerNum,
			})
			if err != nil {
				closeStore()
				return err
			}
			if producer != nil {
				logger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Event publishing enabled")
			}

			app := server.New(server.Options{
				Config:  cfg,
				Logger:  logger,
				Store:   store,
				Reports: reports,
				Emitter: kafka.NewEmitter(producer),
			})
			app.UseCommonMiddlewares()
			app.RegisterRoutes()

			if producer != nil {
				app.OnShutdown(func() {
					if err := producer.Close(); err != nil {
						logger.Error().Err(err).Msg("Error closing kafka producer")
					}
				})
			}
			if closeCache != nil {
				app.OnShutdown(closeCache)
			}
			app.OnShutdown(closeStore)

			return app.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging)

			if cfg.Database.DSN == "" {
				return fmt.Errorf("database.dsn is required for migrations")
			}

			defaults, err := cfg.Raffle.Settings()
			if err != nil {
				return err
			}

			store, err := postgres.Open(cmd.Context(), cfg.Database.DSN, defaults)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := postgres.Apply(cmd.Context(), store.DB()); err != nil {
				return err
			}

			logger.Info().Msg("Migrations applied")
			return nil
		},
	}
}

// openStore selects the backing store: postgres when a DSN is
// configured, otherwise an in-memory store for development.
func openStore(ctx context.Context, cfg *config.Config, defaults raffle.Settings, logger zerolog.Logger) (storage.Store, func(), error) {
	if cfg.Database.DSN == "" {
		logger.Warn().Msg("No database DSN configured, using in-memory store")
		return memory.New(defaults), func() {}, nil
	}

	store, err := postgres.Open(ctx, cfg.Database.DSN, defaults)
	if err != nil {
		return nil, nil, err
	}

	db := store.DB()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	closer := func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing database")
		}
	}
	return store, closer, nil
}
