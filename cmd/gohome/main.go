package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/joshp123/gohome-floureon/internal/config"
	"github.com/joshp123/gohome-floureon/internal/core"
	"github.com/joshp123/gohome-floureon/internal/plugins"
	"github.com/joshp123/gohome-floureon/internal/router"
	"github.com/joshp123/gohome-floureon/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "validate":
			validateMain(os.Args[2:])
			return
		case "help", "-h", "--help":
			usage()
			return
		default:
			usage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load(envOrDefault("GOHOME_CONFIG", config.DefaultPath))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setLogLevel(cfg.Core.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("gohome exited")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	grpcAddr := envOrDefault("GOHOME_GRPC_ADDR", cfg.Core.GRPCAddr)
	httpAddr := envOrDefault("GOHOME_HTTP_ADDR", cfg.Core.HTTPAddr)

	compiled := plugins.Compiled(cfg)
	enabled := config.EnabledPlugins(cfg)
	if err := core.ValidateEnabledPlugins(compiled, enabled, false); err != nil {
		return err
	}
	loaded := core.FilterPlugins(compiled, enabled, false)
	if err := core.ValidatePlugins(loaded); err != nil {
		return err
	}
	defer closePlugins(loaded)

	for _, p := range loaded {
		event := log.Info()
		if p.Health() == core.HealthError {
			event = log.Warn().Str("reason", p.HealthMessage())
		}
		event.Str("plugin", p.ID()).Str("status", string(p.Health())).Msg("plugin loaded")
	}

	if err := core.WriteDashboards(cfg.Core.DashboardDir, loaded); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Core.DashboardDir).Msg("write dashboards")
	}

	grpcServer, err := server.NewGRPCServer(grpcAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	if err := router.RegisterPlugins(grpcServer.Server, loaded); err != nil {
		return err
	}

	metricsRegistry := core.MetricsRegistry(loaded, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gohome_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))
	httpServer := server.NewHTTPServer(httpAddr, router.HTTPMux(loaded, metricsRegistry))

	poller := core.NewPoller(core.CollectEntities(loaded), time.Duration(cfg.Core.PollIntervalSeconds)*time.Second)
	go poller.Run(ctx)

	errs := make(chan error, 2)
	go func() {
		log.Info().Str("addr", httpAddr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", grpcAddr).Msg("grpc listening")
		if err := grpcServer.Serve(); err != nil {
			errs <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("http shutdown")
	}
	grpcServer.Stop()
	return err
}

func validateMain(args []string) {
	path := envOrDefault("GOHOME_CONFIG", config.DefaultPath)
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("invalid config")
	}
	for id := range config.EnabledPlugins(cfg) {
		log.Info().Str("plugin", id).Msg("enabled")
	}
	log.Info().Str("path", path).Msg("config ok")
}

func closePlugins(loaded []core.Plugin) {
	for _, p := range loaded {
		closer, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Str("plugin", p.ID()).Msg("close plugin")
		}
	}
}

func setLogLevel(name string) {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		log.Warn().Str("level", name).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func usage() {
	fmt.Println("gohome [command]")
	fmt.Println("")
	fmt.Println("Without a command gohome runs the daemon using $GOHOME_CONFIG.")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  validate [path]  check a config file and list enabled plugins")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
