package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"ledger-reconciler/core/loader"
	"ledger-reconciler/core/logger"
	"ledger-reconciler/core/metrics"
	"ledger-reconciler/core/middleware/auth"
	"ledger-reconciler/core/middleware/rayid"
	"ledger-reconciler/feature/records"
	"ledger-reconciler/feature/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "ledger-reconciler/docs/swagger"
)

// @title Ledger Reconciler API
// @version 1.0
// @description Ingest ledger report events and read back settlement records.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the reconciler server",
	Long: `Connects to the document store, ensures every collection index, builds the
queue routing table and serves report ingestion and record lookups over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx, bootOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()
		logg := rt.log

		if err := rt.cfg.Server.Validate(); err != nil {
			return err
		}

		// An index conflict or an unregistered queue is a deployment error
		if err := rt.registry.EnsureIndices(ctx, rt.store); err != nil {
			return err
		}
		svc, err := rt.service()
		if err != nil {
			return err
		}
		logg.Info("Consuming queues", zap.Strings("queues", svc.Queues()))

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             rt.cfg.Server.BodyLimit(),
		})

		mgr := loader.NewManager(logg)
		mgr.Register(reports.NewFeature(svc))
		mgr.Register(records.NewFeature(rt.store, rt.registry, logg))

		// RayID first so every log line of a request carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Debug("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Public routes
		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "queues": svc.Queues()})
		})
		app.Get("/swagger/*", swagger.HandlerDefault)
		if prom, ok := rt.metrics.(*metrics.Prometheus); ok {
			app.Get("/metrics", prom.Handler())
		}

		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			errCh <- app.Listen(rt.cfg.Server.Address())
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-sig:
		}

		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
