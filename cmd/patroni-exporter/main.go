package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/edvin/patroni-exporter/internal/collector"
	"github.com/edvin/patroni-exporter/internal/config"
	"github.com/edvin/patroni-exporter/internal/logging"
	"github.com/edvin/patroni-exporter/internal/metrics"
	"github.com/edvin/patroni-exporter/internal/patroni"
)

func main() {
	var (
		envFile    = flag.String("config", "", "path to a dotenv file loaded before the environment is read")
		listenAddr = flag.String("listen-addr", "", "exporter listen address (overrides LISTEN_ADDR)")
	)
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if *envFile != "" {
		if err := config.LoadEnvFile(*envFile); err != nil {
			logger.Fatal().Err(err).Msg("failed to load env file")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger = logging.NewLogger(cfg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sink := metrics.NewSink(registry)

	clusterCollectors := make([]*collector.Collector, 0, len(cfg.Clusters))
	for _, cluster := range cfg.Clusters {
		client := patroni.NewClient(cluster.Name, cluster.BaseURL, cluster.Timeout, cfg.CacheTTL, logger)
		clusterCollectors = append(clusterCollectors, collector.New(client, sink, logger))
	}
	poller := collector.NewPoller(clusterCollectors, cfg.PollInterval, logger)

	srv := metrics.NewServer(cfg.ListenAddr, registry, logger)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("exporter listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("exporter HTTP server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("exporter HTTP server shutdown failed")
	}
	logger.Info().Msg("shut down")
}
