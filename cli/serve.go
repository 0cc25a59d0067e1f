package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartrisk/config"
	qhttp "heartrisk/http"
	"heartrisk/monitoring"
	"heartrisk/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scoring API",
	Long: `Load the reference dataset, feature schema and classifier, verify they
agree on one column layout and serve the JSON API until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override http.port from the config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if servePort > 0 {
		cfg.HTTP.Port = servePort
	}

	metrics := monitoring.NewMetricsCollector()
	go metrics.Run(ctx, 15*time.Second)

	hub := monitoring.NewWebSocketHub(logger, cfg.HTTP.AllowedOrigins)
	go hub.Start()
	defer hub.Stop()

	svc, err := service.New(cfg, logger, service.WithPublisher(hub), service.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer svc.Close()

	if _, err := config.Watch(ctx, logger, cfg.ML.ModelPath, cfg.ML.SchemaPath, cfg.Data.ReferencePath); err != nil {
		logger.Warn("artifact watcher disabled", zap.Error(err))
	}

	api := qhttp.NewAPI(svc, metrics, hub, logger)
	server := qhttp.NewServer(qhttp.ServerConfigFrom(cfg.HTTP), api, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}
