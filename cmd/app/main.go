package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"flowershop/cmd"
	"flowershop/internal/adapters/out/postgres/migrations"
	"flowershop/internal/pkg/telemetry"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "flowershop",
		Usage:   "order fulfillment, warehouse ledger and florist task queue",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional dotenv file"},
		},
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API and the scheduled jobs", Action: serve},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "down", Usage: "revert every migration instead"}},
				Action: migrate,
			},
			{Name: "distribute", Usage: "run one task distribution round", Action: distribute},
			{Name: "escalate", Usage: "raise overdue tasks to urgent once", Action: escalate},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// env is what every subcommand needs before the composition root exists.
type env struct {
	cfg    cmd.Config
	logger *slog.Logger
	db     *gorm.DB
}

// setup loads the config, installs the JSON logger and opens the database.
func setup(c *cli.Context) (*env, error) {
	cfg, err := cmd.LoadConfig(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	db, err := gorm.Open(gormpostgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

// close releases the database connection pool.
func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withRoot runs fn with telemetry and a composition root that live until
// fn returns or the process gets SIGINT or SIGTERM.
func withRoot(c *cli.Context, run func(ctx context.Context, e *env, root *cmd.CompositionRoot) error) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "flowershop",
		ServiceVersion: version,
		OTLPEndpoint:   e.cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("set up telemetry: %w", err)
	}
	defer func() {
		if shutdownErr := shutdownTelemetry(context.Background()); shutdownErr != nil {
			e.logger.Error("shut down telemetry", "error", shutdownErr)
		}
	}()

	root, err := cmd.NewCompositionRoot(ctx, e.cfg, e.db, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := root.Close(); closeErr != nil {
			e.logger.Error("close composition root", "error", closeErr)
		}
	}()

	return run(ctx, e, root)
}

// serve migrates the schema, starts the jobs and serves HTTP until a signal.
func serve(c *cli.Context) error {
	return withRoot(c, func(ctx context.Context, e *env, root *cmd.CompositionRoot) error {
		if err := migrations.Up(e.db); err != nil {
			return err
		}

		server, err := root.CreateEcho()
		if err != nil {
			return err
		}

		jobManager := root.CreateJobManager()
		if err = jobManager.StartAll(); err != nil {
			return err
		}
		defer jobManager.StopAll()

		errCh := make(chan error, 1)
		go func() {
			e.logger.Info("http server started", "port", e.cfg.HTTPPort)
			errCh <- server.Start(fmt.Sprintf("0.0.0.0:%s", e.cfg.HTTPPort))
		}()

		select {
		case err = <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		e.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

// migrate applies every pending migration, or reverts all of them with --down.
func migrate(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if c.Bool("down") {
		if err = migrations.Down(e.db); err != nil {
			return err
		}
		e.logger.Info("migrations reverted")
		return nil
	}
	if err = migrations.Up(e.db); err != nil {
		return err
	}
	e.logger.Info("migrations applied")
	return nil
}

// distribute runs a single distribution round and prints its counters.
func distribute(c *cli.Context) error {
	return withRoot(c, func(ctx context.Context, _ *env, root *cmd.CompositionRoot) error {
		result, err := root.CreateTaskDistributionJob().RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "distributed %d, skipped %d, remaining %d\n",
			result.Distributed, result.Skipped, result.Remaining)
		return nil
	})
}

// escalate raises overdue tasks to urgent once and prints how many changed.
func escalate(c *cli.Context) error {
	return withRoot(c, func(ctx context.Context, _ *env, root *cmd.CompositionRoot) error {
		escalated, err := root.CreateOverdueEscalationJob().RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "escalated %d\n", escalated)
		return nil
	})
}
