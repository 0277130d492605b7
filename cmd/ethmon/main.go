package main

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ethmon/pkg/config"
	"ethmon/pkg/connector"
	"ethmon/pkg/log"
	"ethmon/pkg/observability"
	"ethmon/pkg/server"
	"ethmon/pkg/status"
	"ethmon/pkg/telemetry"

	"github.com/spf13/pflag"
)

const (
	telemetryQueueSize = 1024
	httpSinkRetries    = 3
)

//go:embed VERSION
var Version string

func main() {
	// Initialize logger first
	_ = log.Logger

	defaultConfig := os.Getenv("ETHMON_CONFIG")
	if defaultConfig == "" {
		defaultConfig = config.DefaultPath
	}
	configPath := pflag.String("config", defaultConfig, "Configuration file path (JSON or YAML)")
	listen := pflag.String("listen", "", "HTTP listen address, overrides the configuration")
	debug := pflag.Bool("debug", false, "Enable debug logging")
	pflag.Parse()

	if err := run(*configPath, *listen, *debug); err != nil {
		log.Fatal().Err(err).Msg("ethmon failed")
	}
}

func run(configPath, listen string, debug bool) error {
	version := strings.TrimSpace(Version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	switch {
	case debug:
		log.SetDebugMode()
	case cfg.LogLevel != "":
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			return err
		}
	}
	if listen != "" {
		cfg.Listen = listen
	}

	flush, sentryEnabled, err := observability.InitSentry(version)
	if err != nil {
		log.Warn().Err(err).Msg("Sentry initialization failed, error reporting disabled")
	}
	defer flush()

	sink, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	dispatcher := telemetry.NewDispatcher(sink, telemetryQueueSize)

	log.Info().
		Str("config", cfg.Source).
		Str("version", version).
		Int("rig_count", len(cfg.Rigs)).
		Bool("sentry", sentryEnabled).
		Msg("Configuration loaded")

	table := status.NewTable(cfg.Rigs)
	fleet := connector.NewFleet(cfg.Rigs, table, connector.Options{
		ObjectID:  cfg.ObjectID,
		Tolerance: cfg.Tolerance,
		Sink:      dispatcher,
	})

	srv := server.New(table, status.Meta{
		Title:       cfg.Title,
		Header:      cfg.Header,
		Animation:   cfg.Animation,
		Refresh:     cfg.Refresh,
		Tolerance:   cfg.Tolerance,
		Temperature: cfg.Temperature,
		Hashrates:   cfg.Hashrates,
	}, server.Options{
		Version: version,
		Sentry:  sentryEnabled,
		Rigs:    fleet,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fleet.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(cfg.Listen)
	}()

	select {
	case <-ctx.Done():
		err = nil
	case err = <-serverErr:
		stop()
	}

	if shutdownErr := srv.Shutdown(context.Background()); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	fleet.Wait()
	dispatcher.Close()
	closeSinks()

	log.Info().Msg("Shutdown complete")
	return err
}

// buildSinks assembles the telemetry fan-out from the logstash settings. The
// log sink is always present.
func buildSinks(cfg *config.Config) (telemetry.Sink, func(), error) {
	sinks := telemetry.Multi{telemetry.NewLogSink(log.Logger)}
	closers := []func() error{}

	if cfg.Logstash.UDPAddr != "" {
		udp, err := telemetry.NewUDPSink(cfg.Logstash.UDPAddr)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, udp)
		closers = append(closers, udp.Close)
		log.Info().Str("addr", cfg.Logstash.UDPAddr).Msg("Shipping events to logstash over UDP")
	}
	if cfg.Logstash.URL != "" {
		sinks = append(sinks, telemetry.NewHTTPSink(cfg.Logstash.URL, httpSinkRetries))
		log.Info().Str("url", cfg.Logstash.URL).Msg("Shipping events to logstash over HTTP")
	}

	return sinks, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn().Err(err).Msg("Failed to close telemetry sink")
			}
		}
	}, nil
}
