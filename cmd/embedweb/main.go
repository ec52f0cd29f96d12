package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/indigo-web/embedweb/config"
	"github.com/indigo-web/embedweb/handler/echo"
	"github.com/indigo-web/embedweb/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newCommand(viper.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newCommand(v *viper.Viper) *cobra.Command {
	var (
		cfgFile string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:           "embedweb",
		Short:         "Serve HTTP/1.1 requests with a bounded connection pool",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}

			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			if err = run(cmd.Context(), cfg, logger); err != nil {
				logger.Error("host failed", zap.Error(err))
			}

			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")
	flags.BoolVar(&debug, "debug", false, "enable development logging")
	flags.String("addr", "", "address to listen on")
	flags.Int("max-connections", 0, "number of connections served at once")
	flags.Duration("read-timeout", 0, "idle connections lifetime")
	flags.Duration("write-timeout", 0, "maximal duration of a single write")
	flags.String("metrics-addr", "", "address to expose prometheus metrics on, disabled if empty")

	bind := map[string]string{
		"net.addr":             "addr",
		"pool.max_connections": "max-connections",
		"net.read_timeout":     "read-timeout",
		"net.write_timeout":    "write-timeout",
		"metrics.addr":         "metrics-addr",
	}
	for key, flag := range bind {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

// loadConfig layers the config file, EMBEDWEB_* environment variables and explicitly
// set flags over the defaults, in order of increasing priority.
func loadConfig(v *viper.Viper, file string) (*config.Config, error) {
	cfg := config.Default()
	v.SetDefault("pool.max_connections", cfg.Pool.MaxConnections)
	v.SetDefault("net.addr", cfg.NET.Addr)
	v.SetDefault("net.read_buffer_size", cfg.NET.ReadBufferSize)
	v.SetDefault("net.read_timeout", cfg.NET.ReadTimeout)
	v.SetDefault("net.write_timeout", cfg.NET.WriteTimeout)
	v.SetDefault("net.accept_loop_interrupt_period", cfg.NET.AcceptLoopInterruptPeriod)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)

	v.SetEnvPrefix("embedweb")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Pool.MaxConnections < 1 {
		return nil, fmt.Errorf("pool.max_connections must be positive, got %d", cfg.Pool.MaxConnections)
	}

	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	host := transport.NewHost(
		cfg,
		echo.NewFactory(logger.Named("echo")),
		logger.Named("host"),
		transport.NewMetrics(registry),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return host.ListenAndServe(gctx)
	})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metrics := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			<-gctx.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return metrics.Shutdown(ctx)
		})
		g.Go(func() error {
			logger.Info("exposing metrics", zap.String("addr", cfg.Metrics.Addr))

			err := metrics.ListenAndServe()
			if stderrors.Is(err, http.ErrServerClosed) {
				return nil
			}

			return err
		})
	}

	return g.Wait()
}
