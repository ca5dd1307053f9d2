package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparklab/firefly/engine"
	"github.com/sparklab/firefly/monitoring"
	"github.com/sparklab/firefly/recording"
	"github.com/sparklab/firefly/telemetry"
)

var (
	flagStreamURL   string
	flagTopologyURL string
	flagMonitorAddr string
	flagRecordPath  string
	flagOpenBrowser bool
	flagDebug       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine, the telemetry ingestor, and the monitor server.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagStreamURL, "stream", "",
		"websocket URL of the telemetry stream")
	serveCmd.Flags().StringVar(&flagTopologyURL, "topology", "",
		"URL of the static topology to seed the graph with")
	serveCmd.Flags().StringVar(&flagMonitorAddr, "monitor-addr", "",
		"listen address of the monitor server")
	serveCmd.Flags().StringVar(&flagRecordPath, "record", "",
		"record telemetry into a SQLite file at this path")
	serveCmd.Flags().BoolVar(&flagOpenBrowser, "open", false,
		"open the monitor status page in the default browser")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false,
		"enable debug logging")

	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := engine.LoadConfig()
	if err != nil {
		return err
	}
	applyFlags(&cfg)

	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}

	if flagDebug {
		eng.AcceptHook(engine.NewLogHook(logger))
	}

	if cfg.RecordingPath != "" {
		recorder := recording.New(cfg.RecordingPath)
		defer recorder.Close()

		eng.AcceptHook(recording.NewHook(recorder))
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TopologyURL != "" {
		seedTopology(ctx, cfg.TopologyURL, eng, logger)
	}

	ingestor := telemetry.NewIngestor(cfg.StreamURL, eng, logger).
		WithBackoff(cfg.ReconnectBackoff)
	ingestor.Start(ctx)
	defer ingestor.Stop()

	monitor := monitoring.NewMonitor().
		WithAddress(cfg.MonitorAddr).
		WithLogger(logger)
	if cfg.OpenBrowser {
		monitor = monitor.WithBrowserLaunch()
	}
	monitor.RegisterEngine(eng)

	if err := monitor.StartServer(); err != nil {
		return err
	}
	defer func() { _ = monitor.StopServer(context.Background()) }()

	logger.Info("engine running",
		zap.String("stream", cfg.StreamURL),
		zap.Float64("tick_rate", cfg.TickRate),
		zap.Int("pool_capacity", cfg.PoolCapacity))

	err = eng.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}

	return err
}

func applyFlags(cfg *engine.Config) {
	if flagStreamURL != "" {
		cfg.StreamURL = flagStreamURL
	}
	if flagTopologyURL != "" {
		cfg.TopologyURL = flagTopologyURL
	}
	if flagMonitorAddr != "" {
		cfg.MonitorAddr = flagMonitorAddr
	}
	if flagRecordPath != "" {
		cfg.RecordingPath = flagRecordPath
	}
	if flagOpenBrowser {
		cfg.OpenBrowser = true
	}
}

func buildLogger() (*zap.Logger, error) {
	if flagDebug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func seedTopology(
	ctx context.Context,
	url string,
	eng *engine.Engine,
	logger *zap.Logger,
) {
	topo, err := telemetry.FetchTopology(ctx, url, nil)
	if err != nil {
		logger.Warn("topology seed failed, starting with an empty graph",
			zap.String("url", url), zap.Error(err))
		return
	}

	nodes := make([]engine.SeedNode, 0, len(topo.Nodes))
	for _, n := range topo.Nodes {
		nodes = append(nodes, engine.SeedNode{
			ID:        n.ID,
			Label:     n.Label,
			Subsystem: n.Subsystem,
		})
	}

	edges := make([]engine.SeedEdge, 0, len(topo.Edges))
	for _, e := range topo.Edges {
		edges = append(edges, engine.SeedEdge{
			Source: e.Source,
			Target: e.Target,
		})
	}

	eng.Seed(nodes, edges)

	logger.Info("topology seeded",
		zap.Int("nodes", len(nodes)), zap.Int("edges", len(edges)))
}
