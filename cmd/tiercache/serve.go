package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ionlayer/tiercache/internal/config"
	"github.com/ionlayer/tiercache/internal/tracing"
	"github.com/ionlayer/tiercache/internal/wiring"
)

// cmdServe loads config, assembles the engine and its debug/inspect HTTP
// server, and blocks until SIGINT/SIGTERM. Unlike the teacher's daemon,
// there is no pidfile or background-process mode: the engine's container
// model (§1, §5) is a short-lived foreground process, not a long-running
// service with its own lifecycle management.
func cmdServe(args []string) {
	var configPath, profileName string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		case "--profile":
			if i+1 < len(args) {
				i++
				profileName = args[i]
			}
		}
	}
	if profileName == "" {
		profileName = "default"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.Logging.Level))
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().Timestamp().Str("service", "tiercache").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Tracing.ServiceName, "dev", cfg.Tracing.Exporter, cfg.Tracing.Endpoint, cfg.Tracing.SampleRate, cfg.Tracing.Insecure)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error initializing tracing: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("tracing shutdown failed")
			}
		}()
	}

	app, err := wiring.Build(ctx, cfg, profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error assembling engine: %v\n", err)
		os.Exit(1)
	}

	if watchPath := config.ConfigFilePath(); watchPath != "" {
		watcher, err := config.Watch(watchPath)
		if err != nil {
			log.Warn().Err(err).Str("path", watchPath).Msg("config hot-reload disabled: failed to start watcher")
		} else {
			watcher.OnChange(func(_, newCfg *config.Config) {
				if err := app.Reload(newCfg, profileName); err != nil {
					log.Error().Err(err).Msg("config hot-reload: rebuilding profile failed, keeping previous profile")
					return
				}
				log.Info().Str("profile", profileName).Msg("config hot-reload: profile rebuilt")
			})
			defer watcher.Close()
		}
	} else {
		log.Info().Msg("config hot-reload disabled: no config file on disk to watch")
	}

	log.Info().
		Str("profile", profileName).
		Str("addr", fmt.Sprintf("%s:%d", cfg.HTTP.BindAddress, cfg.HTTP.Port)).
		Msg("tiercache serving")

	errCh := make(chan error, 1)
	go func() { errCh <- app.HTTP.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.HTTP.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}
}

func cmdInit() {
	if err := config.InitConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "error generating config: %v\n", err)
		os.Exit(1)
	}
}

func cmdConfigExport(args []string) {
	path := "tiercache-export.toml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := config.Load(""); err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ExportConfig(path); err != nil {
		fmt.Fprintf(os.Stderr, "error exporting config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config exported to %s\n", path)
}

func cmdConfigImport(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tiercache config-import <file>")
		os.Exit(1)
	}
	if err := config.ImportConfig(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "error importing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config imported from %s\n", args[0])
}

func parseLogLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
