package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/stores"
	"github.com/systmms/gsmconfig/pkg/secretconfig"
)

func NewProjectCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var storeName string

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show which project secrets are listed from",
		Long: `Print the project id gsmconfig resolves and where it came from.

Without --store the id comes from the platform metadata server,
GOOGLE_CLOUD_PROJECT or GCLOUD_PROJECT, in that order. With --store the
store's project_id, credentials and scope are consulted first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var id, source string
			if storeName != "" {
				s, err := openSessionStoresOnly(cfg, rt)
				if err != nil {
					return err
				}
				defer s.Close()

				opened, err := s.store(ctx, storeName)
				if err != nil {
					return err
				}
				id, source = storeScope(ctx, opened, rt.Environment)
			} else {
				id, source = secretconfig.ResolveProjectIDWithSource(ctx, rt.Environment)
			}

			if id == "" {
				return dserrors.ConfigError{
					Field:   "project_id",
					Message: "no project id could be resolved",
					Suggestion: fmt.Sprintf("Export %s, set project_id on the store, or run on Google Cloud",
						secretconfig.EnvGoogleCloudProject),
				}
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t(from %s)\n", id, source)
			return err
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "", "Resolve the project for a configured store")

	return cmd
}

// openSessionStoresOnly loads the configuration without registering sources.
func openSessionStoresOnly(cfg *config.Config, rt *Runtime) (*session, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return &session{cfg: cfg, rt: rt, opened: make(map[string]*stores.Opened)}, nil
}
