package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/teamboard/internal/api"
	"github.com/mesh-intelligence/teamboard/internal/auth"
	"github.com/mesh-intelligence/teamboard/internal/engine"
	"github.com/mesh-intelligence/teamboard/internal/metrics"
	"github.com/mesh-intelligence/teamboard/internal/telemetry"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return fmt.Errorf("serve: %w (set %s in config.yaml or %s)", auth.ErrSecretEmpty, cfgKeyJWTSecret, envName(cfgKeyJWTSecret))
		}
		addr := cfg.HTTPAddr
		if flagAddr != "" {
			addr = flagAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		shutdown, err := telemetry.Init(ctx, log, telemetry.Config{
			Enabled:     cfg.Telemetry,
			SampleRatio: cfg.TelemetryRatio,
			ServiceName: "teamboard",
			Version:     version,
			Output:      os.Stderr,
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("telemetry shutdown failed", "error", err)
			}
		}()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)

		authSvc, err := auth.New(store, auth.Options{
			Secret:   cfg.JWTSecret,
			TokenTTL: cfg.TokenTTL,
			Log:      log,
		})
		if err != nil {
			return err
		}
		eng := engine.New(store, engine.Options{
			Log:        log,
			Hooks:      m,
			Authorizer: auth.Policy{Operators: cfg.Operators},
		})

		if isProduction(cfg.LogMode) {
			gin.SetMode(gin.ReleaseMode)
		}
		router := api.NewRouter(api.RouterConfig{
			Engine:   eng,
			Auth:     authSvc,
			Log:      log,
			Metrics:  m,
			Gatherer: reg,
		})

		log.Info("starting teamboard", "version", version, "backend", cfg.Store.Backend, "addr", addr)
		err = api.NewServer(addr, router, log).Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides http.addr)")
}

func isProduction(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return true
	}
	return false
}
