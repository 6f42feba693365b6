package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/internal/config"
	"github.com/systmms/gsmconfig/internal/stores"
)

func NewStoresCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List supported and configured secret stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(out, "Supported Store Types:")
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TYPE\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "----\t-----------\n")
			for _, t := range rt.Registry.SupportedTypes() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", t, storeDescription(t))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			// The configuration is optional here.
			if err := cfg.Load(); err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Debug("not listing configured stores: %v", err)
				}
				return nil
			}

			_, _ = fmt.Fprintln(out, "\nConfigured Stores:")
			names := cfg.StoreNames()
			if len(names) == 0 {
				_, _ = fmt.Fprintln(out, "No stores configured; sources use Google Cloud Secret Manager with default credentials")
				return nil
			}
			w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "NAME\tTYPE\tSTATUS\n")
			_, _ = fmt.Fprintf(w, "----\t----\t------\n")
			for _, name := range names {
				store := cfg.Definition.Stores[name]
				status := "configured"
				if !rt.Registry.IsSupported(store.Type) {
					status = "unsupported"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, store.Type, status)
			}
			return w.Flush()
		},
	}

	return cmd
}

func storeDescription(storeType string) string {
	switch storeType {
	case stores.TypeGCPSecretManager:
		return "Google Cloud Secret Manager"
	case stores.TypeAWSSecretsManager:
		return "AWS Secrets Manager"
	case stores.TypeAzureKeyVault:
		return "Azure Key Vault"
	}
	return "No description available"
}
