package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/solatis/aepbridge/internal/core/api"
	"github.com/solatis/aepbridge/internal/core/auth"
	"github.com/solatis/aepbridge/internal/core/config"
	"github.com/solatis/aepbridge/internal/core/db"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/core/server"
	"github.com/solatis/aepbridge/internal/sdk"
)

// Version is the bridge release.
const Version = "0.1.0"

var noAuth bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC bridge service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	def := config.DefaultBridgeConfig()
	f := serveCmd.Flags()
	f.String("host", def.Host, "gRPC server host")
	f.Int("port", def.Port, "gRPC server port")
	f.Int("max-connections", def.MaxConnections, "maximum concurrent streams per connection")
	f.Duration("request-timeout", def.RequestTimeout, "per-call timeout")
	f.Int("max-payload-size", def.MaxPayloadSize, "maximum request size in bytes")
	f.String("data-dir", def.DataDir, "directory for the SQLite database and journal files")
	f.Bool("journal", def.Journal, "record every call to the database and JSONL journal")
	f.String("metrics-addr", def.MetricsAddr, "Prometheus metrics listen address (empty disables)")
	f.String("app-package", def.AppPackage, "host application package used to build messaging surface URIs")
	f.BoolVar(&noAuth, "no-auth", false, "serve without API key authentication")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := slog.Default()

	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	var authenticator *auth.Authenticator
	if noAuth {
		logger.Warn("authentication disabled")
	} else {
		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		if len(secrets) == 0 {
			return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET or pass --no-auth)", config.EnvPrefix)
		}
		authenticator = auth.NewAuthenticator(secrets, queries)
	}

	opts := []api.Option{api.WithMetrics(m), api.WithLogger(logger)}
	if cfg.Journal {
		journal, err := api.NewJournal(queries, filepath.Join(cfg.DataDir, "journal"), m, logger)
		if err != nil {
			return err
		}
		opts = append(opts, api.WithJournal(journal))
	}

	service, err := api.NewBridgeService(sdk.NewLoopback().Runtime(), cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 2)
	var metricsServer *server.MetricsServer
	if cfg.MetricsAddr != "" {
		metricsServer = server.NewMetricsServer(cfg.MetricsAddr, reg, logger)
		go func() { errChan <- metricsServer.Start() }()
	}

	logger.Info("starting aepbridge", "version", Version, "addr", cfg.Addr(), "auth", !noAuth, "journal", cfg.Journal)
	go func() { errChan <- grpcServer.Start(ctx) }()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if metricsServer != nil {
		errs = append(errs, metricsServer.Shutdown(shutdownCtx))
	}
	errs = append(errs, grpcServer.Shutdown(shutdownCtx))
	return errors.Join(errs...)
}
