package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/logging"
	"github.com/systmms/gsmconfig/internal/metrics"
)

func NewWatchCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var (
		interval    time.Duration
		metricsPort int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the configuration periodically and report changes",
		Long: `Load the configured sources, then reload them every --interval and report
which keys were added, removed or changed. Values are never printed.

A failed reload is reported and the previous configuration is kept.

With --metrics-port, Prometheus metrics are served on /metrics and a
liveness probe on /health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return dserrors.UserError{
					Message:    "Interval must be positive",
					Suggestion: "Use --interval 5m",
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics.InitMetrics()
			if metricsPort > 0 {
				serverCfg := metrics.DefaultServerConfig()
				serverCfg.Port = metricsPort
				server := metrics.NewServer(serverCfg)
				if err := server.Start(); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Stop(shutdownCtx)
				}()
				logInfo(cfg, "Serving metrics on %s%s", server.Addr(), serverCfg.Path)
			}

			s, err := openSession(ctx, cfg, rt)
			if err != nil {
				return err
			}
			defer s.Close()

			k, err := s.build(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d keys\n", len(k.Keys()))

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}

				next, err := s.builder.Reload(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					msg := logging.Redact(err.Error(), secretValues(k))
					if dserrors.IsRetryable(err) {
						logWarn(cfg, "reload failed, retrying in %s: %s", interval, msg)
					} else {
						logError(cfg, "reload failed, keeping previous configuration: %s", msg)
					}
					continue
				}

				d := diffTrees(k, next)
				if !d.empty() {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s reload: %s\n", time.Now().UTC().Format(time.RFC3339), d)
				}
				k = next
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Time between reloads")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")

	return cmd
}

// treeDiff lists the keys that differ between two loads.
type treeDiff struct {
	added, removed, changed []string
}

func (d treeDiff) empty() bool {
	return len(d.added)+len(d.removed)+len(d.changed) == 0
}

func (d treeDiff) String() string {
	return fmt.Sprintf("%d added %v, %d removed %v, %d changed %v",
		len(d.added), d.added, len(d.removed), d.removed, len(d.changed), d.changed)
}

func diffTrees(before, after *koanf.Koanf) treeDiff {
	var d treeDiff
	old := flatValues(before, true)
	cur := flatValues(after, true)
	for _, key := range after.Keys() {
		prev, ok := old[key]
		switch {
		case !ok:
			d.added = append(d.added, key)
		case prev != cur[key]:
			d.changed = append(d.changed, key)
		}
	}
	for _, key := range before.Keys() {
		if _, ok := cur[key]; !ok {
			d.removed = append(d.removed, key)
		}
	}
	return d
}

// secretValues returns the tree's values, for redacting error messages.
func secretValues(k *koanf.Koanf) []string {
	all := k.All()
	values := make([]string, 0, len(all))
	for _, v := range all {
		values = append(values, fmt.Sprint(v))
	}
	return values
}

func logInfo(cfg *config.Config, format string, args ...interface{}) {
	if cfg.Logger != nil {
		cfg.Logger.Info(format, args...)
	}
}

func logError(cfg *config.Config, format string, args ...interface{}) {
	if cfg.Logger != nil {
		cfg.Logger.Error(format, args...)
	}
}

func logWarn(cfg *config.Config, format string, args ...interface{}) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(format, args...)
	}
}
