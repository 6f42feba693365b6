package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/internal/config"
)

func NewLoadCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var (
		format     string
		showValues bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load every configured source and print the merged configuration",
		Long: `Load the sources in gsmconfig.yaml, in order, and print the merged tree.

Later sources override earlier ones. Values are redacted unless --show-values
is given.

Examples:
  # Keys only
  gsmconfig load

  # As dotenv lines, with values
  gsmconfig load --format env --show-values > .env

  # As YAML
  gsmconfig load --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), cfg, rt)
			if err != nil {
				return err
			}
			defer s.Close()

			k, err := s.build(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Logger != nil {
				cfg.Logger.Debug("loaded %d keys from %d sources", len(k.Keys()), len(cfg.Definition.Sources))
			}
			return renderTree(cmd.OutOrStdout(), k, s.delimiter(), format, showValues)
		},
	}

	cmd.Flags().StringVar(&format, "format", FormatEnv, "Output format: env, json or yaml")
	cmd.Flags().BoolVar(&showValues, "show-values", false, "Print secret values instead of [REDACTED]")

	return cmd
}
