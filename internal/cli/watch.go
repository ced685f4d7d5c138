package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/watcher"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var metricsAddress string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process uploads as they arrive",
		Long: `Watch incoming/<index> of every index and ingest new files once the
directory has been quiet for the configured debounce interval. With a metrics
address, Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if metricsAddress == "" {
				metricsAddress = cfg.Settings.MetricsAddress
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			svc, err := openService(cfg, serviceOptions{requireKey: true, metrics: reg})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			if metricsAddress != "" {
				l, err := net.Listen("tcp", metricsAddress)
				if err != nil {
					return fmt.Errorf("failed to get listener for metrics endpoint: %w", err)
				}
				defer func() { _ = l.Close() }()
				m := http.NewServeMux()
				m.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
				go func() {
					if err := http.Serve(l, m); err != nil && !errors.Is(err, net.ErrClosed) {
						errCh <- fmt.Errorf("error on serving metrics on %q: %w", metricsAddress, err)
					}
				}()
				logger.Info("Serving metrics", logger.Fields{"address": l.Addr().String()})
			}

			dirs := make(map[string]string, len(cfg.Indexes))
			for _, name := range svc.orch.Registry().Names() {
				dirs[name] = cfg.IncomingDir(name)
			}
			w := watcher.New(svc.orch, dirs, cfg.Settings.WatchDebounce)

			go func() { errCh <- w.Run(cmd.Context()) }()
			logger.Info("Watching incoming directories", logger.Fields{"indexes": len(dirs)})
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&metricsAddress, "metrics-address", "", "address of the Prometheus endpoint (default: from config)")

	return cmd
}
