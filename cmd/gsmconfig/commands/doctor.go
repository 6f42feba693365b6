package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/stores"
)

// Store health states.
const (
	statusHealthy = "healthy"
	statusError   = "error"
)

// StoreHealth is the result of probing one store.
type StoreHealth struct {
	Name       string
	Type       string
	Scope      string
	Status     string
	Message    string
	Suggestion string
}

func NewDoctorCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and store connectivity",
		Long: `Verify that gsmconfig.yaml is valid and that every store it uses can be
reached.

Each store is opened with its configured credentials and asked to list one
secret from its project or scope, within the store's timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if err := cfg.Load(); err != nil {
				return err
			}
			if cfg.Logger != nil {
				cfg.Logger.Info("Configuration %s is valid (%d sources)", cfg.Path, len(cfg.Definition.Sources))
			}

			s, err := openSessionStoresOnly(cfg, rt)
			if err != nil {
				return err
			}
			defer s.Close()

			var results []StoreHealth
			for _, name := range usedStores(cfg.Definition) {
				results = append(results, probeStore(ctx, s, name))
			}

			displayHealthResults(out, results, verbose)

			healthy := 0
			for _, r := range results {
				if r.Status == statusHealthy {
					healthy++
				}
			}
			_, _ = fmt.Fprintf(out, "\nSummary: %d/%d stores healthy\n", healthy, len(results))
			if healthy < len(results) {
				return dserrors.UserError{
					Message:    "Some stores are not healthy",
					Suggestion: "Run 'gsmconfig doctor --verbose' for suggestions",
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for failing stores")

	return cmd
}

// usedStores returns the configured stores followed by the default store
// when a source relies on it.
func usedStores(def *config.Definition) []string {
	cfg := config.Config{Definition: def}
	names := cfg.StoreNames()
	for _, src := range def.Sources {
		if src.Store == "" {
			if _, ok := def.Stores[defaultStoreName]; !ok {
				names = append(names, defaultStoreName)
			}
			break
		}
	}
	return names
}

func probeStore(ctx context.Context, s *session, name string) StoreHealth {
	health := StoreHealth{Name: name, Type: stores.TypeGCPSecretManager}
	if storeCfg, ok := s.cfg.Definition.Stores[name]; ok {
		health.Type = storeCfg.Type
	}

	fail := func(err error) StoreHealth {
		health.Status = statusError
		health.Message = err.Error()
		var ue dserrors.UserError
		if errors.As(err, &ue) {
			health.Message = ue.Message
			health.Suggestion = ue.Suggestion
			if ue.Err != nil {
				health.Message = ue.Err.Error()
			}
		} else {
			health.Suggestion = dserrors.StoreSuggestion(health.Type, err)
		}
		return health
	}

	opened, err := s.store(ctx, name)
	if err != nil {
		return fail(err)
	}

	scope, _ := storeScope(ctx, opened, s.rt.Environment)
	if scope == "" {
		return fail(dserrors.ConfigError{Field: "project_id", Message: "no project id could be resolved"})
	}
	health.Scope = scope

	timeout := s.cfg.Definition.Stores[name].Timeout()
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := opened.Store.ListSecrets(probeCtx, scope, "").Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fail(err)
	}

	health.Status = statusHealthy
	health.Message = "Store is reachable"
	return health
}

// displayHealthResults shows store health in a table
func displayHealthResults(w io.Writer, results []StoreHealth, verbose bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(tw, "STORE\tTYPE\tSCOPE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(tw, "-----\t----\t-----\t------\t-------\n")

	for _, r := range results {
		status := "✗ " + r.Status
		if r.Status == statusHealthy {
			status = "✓ " + r.Status
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Type, r.Scope, status, r.Message)
	}
	_ = tw.Flush()

	if !verbose {
		return
	}
	for _, r := range results {
		if r.Status == statusHealthy || r.Suggestion == "" {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s:\n  💡 %s\n", r.Name, r.Suggestion)
	}
}
