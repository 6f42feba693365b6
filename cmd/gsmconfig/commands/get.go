package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/secure"
)

func NewGetCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var secureOutput bool

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a single configuration value",
		Long: `Load the configured sources and print the value of one key.

Only the raw value is printed, without a trailing newline, so the output can
be captured in scripts. Keys use the configured delimiter (":" by default).

Examples:
  gsmconfig get Email:Host
  export DB_URL=$(gsmconfig get Database:Url --secure)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			s, err := openSession(cmd.Context(), cfg, rt)
			if err != nil {
				return err
			}
			defer s.Close()

			k, err := s.build(cmd.Context())
			if err != nil {
				return err
			}

			if !k.Exists(key) {
				return dserrors.ConfigError{
					Field:      "key",
					Value:      key,
					Message:    "key not found in loaded configuration",
					Suggestion: keySuggestion(k.Keys(), key, s.delimiter()),
				}
			}
			if len(k.Cut(key).Keys()) > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Key '%s' is a section, not a value", key),
					Suggestion: fmt.Sprintf("Use 'gsmconfig load --format yaml' to see everything below %s", key),
				}
			}

			value := k.String(key)
			if !secureOutput {
				_, err := fmt.Fprint(cmd.OutOrStdout(), value)
				return err
			}

			sealed := secure.FromString(value)
			defer sealed.Destroy()
			_, err = sealed.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().BoolVar(&secureOutput, "secure", false, "Hold the value in protected memory until it is written")

	return cmd
}

// keySuggestion lists keys sharing the first segment of key, or a few
// available keys.
func keySuggestion(keys []string, key, delim string) string {
	if len(keys) == 0 {
		return "No keys were loaded. Run 'gsmconfig doctor' to check your stores"
	}

	head, _, _ := strings.Cut(key, delim)
	var related []string
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return fmt.Sprintf("Keys are case-sensitive. Did you mean %s?", k)
		}
		if strings.HasPrefix(strings.ToLower(k), strings.ToLower(head)) {
			related = append(related, k)
		}
	}
	if len(related) == 0 {
		related = keys
	}
	sort.Strings(related)
	if len(related) > 10 {
		return fmt.Sprintf("%d keys loaded. Use 'gsmconfig load' to see them all", len(keys))
	}
	return "Available keys: " + strings.Join(related, ", ")
}
