package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clia-tracker/core/database"
	"clia-tracker/core/loader"
	"clia-tracker/core/logger"
	"clia-tracker/core/middleware/auth"
	"clia-tracker/core/middleware/rayid"
	"clia-tracker/core/output"
	"clia-tracker/core/storage"
	"clia-tracker/feature/clia"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation HTTP server",
	Long: `Starts the HTTP server exposing POST /reconcile for uploaded captures
and GET /reconcile/columns for the CDC capture layout.`,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load Configuration and Logger
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	// 2. Storage (Optional, used when saved runs are published)
	var store storage.Client
	if conn, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Object storage unavailable", zap.Error(err))
	} else {
		store = conn
	}

	// 3. Export database (Optional)
	var exporter clia.Exporter
	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional export database connection failed", zap.Error(err))
	} else {
		e := database.NewExporter(db)
		if err := e.Migrate(); err != nil {
			logg.Warn("Export tables unavailable", zap.Error(err))
		} else {
			exporter = e
			logg.Info("Connected to export database", zap.String("driver", cfg.Database.Driver))
		}
	}

	// 4. Initialize Fiber App
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true, // We will log our own startup message
		BodyLimit:             cfg.Server.BodyLimit(),
	})

	// 5. Initialize Feature Loader
	svc := clia.NewService(clia.Settings{
		Reconcile: cfg.Reconcile,
		Input:     cfg.Input,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
	}, output.NewWriter(cfg.Output), store, exporter, logg)

	mgr := loader.NewManager()
	mgr.Register(clia.NewFeature(svc, cfg.Output.MaxRows))

	// Middleware Registration
	// 1. RayID (Must be first to trace everything)
	app.Use(rayid.New())

	// 2. Logging Middleware (Zap + RayID)
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		start := time.Now()
		err := c.Next()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			l.Error("Request error", append(fields, zap.Error(err))...)
			return err
		}
		l.Info("Request served", fields...)
		return nil
	})

	// 3. Health (Public)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 4. Auth (Protect API)
	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
	if cfg.Server.ApiKey == "" {
		logg.Warn("SERVER_API_KEY is empty, the API is unprotected")
	}

	// 6. Load Features
	loaded, err := mgr.LoadAll(app)
	if err != nil {
		return err
	}
	logg.Info("Features loaded", zap.Strings("features", loaded))

	// 7. Start Server
	errCh := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("port", cfg.Server.Port))
		errCh <- app.Listen(cfg.Server.Address())
	}()

	// 8. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("Shutting down server...")
	return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout())
}
