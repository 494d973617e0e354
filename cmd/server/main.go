package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/loopkv/loopkv/internal/server"
	"github.com/loopkv/loopkv/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &config.ServerConfig{}

	cmd := &cobra.Command{
		Use:   "loopkv-server",
		Short: "Run the loopkv key-value server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Unset flags are zeroed so applyFlagOverrides keeps env values.
			f := cmd.Flags()
			if !f.Changed("host") {
				cfg.Host = ""
			}
			if !f.Changed("port") {
				cfg.Port = 0
			}
			if !f.Changed("max-message-size") {
				cfg.MaxMessageSize = 0
			}
			if !f.Changed("metrics-addr") {
				cfg.MetricsAddr = ""
			}
			if !f.Changed("log-level") {
				cfg.LogLevel = ""
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", "0.0.0.0", "Server host")
	flags.IntVar(&cfg.Port, "port", config.DefaultServerPort, "Server port")
	flags.IntVar(&cfg.MaxMessageSize, "max-message-size", config.DefaultMaxMessageSize, "Maximum bytes for one framed request")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", "127.0.0.1:9090", "Prometheus metrics listen address")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func run(flagCfg *config.ServerConfig) error {
	cfg := config.ServerConfigFromEnv()
	applyFlagOverrides(cfg, flagCfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"host":             cfg.Host,
		"port":             cfg.Port,
		"max_message_size": cfg.MaxMessageSize,
	}).Info("starting loopkv server")

	go serveMetrics(cfg.MetricsAddr, log)

	srv := server.New(cfg.Host, cfg.Port, cfg.MaxMessageSize, server.WithLogger(log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCh:
		log.Info("shutting down server")
		if err := srv.Stop(); err != nil {
			log.WithError(err).Warn("error stopping server")
		}
		<-errCh
		return nil
	}
}

// applyFlagOverrides copies any flag value the user actually set on top
// of the env/default-loaded config, so flags keep the highest precedence.
func applyFlagOverrides(cfg, flags *config.ServerConfig) {
	if flags.Host != "" {
		cfg.Host = flags.Host
	}
	if flags.Port != 0 {
		cfg.Port = flags.Port
	}
	if flags.MaxMessageSize != 0 {
		cfg.MaxMessageSize = flags.MaxMessageSize
	}
	if flags.MetricsAddr != "" {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
}

func serveMetrics(addr string, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithField("addr", addr).Info("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("metrics server stopped")
	}
}
