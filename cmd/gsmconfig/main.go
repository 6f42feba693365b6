package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/cmd/gsmconfig/commands"
	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/logging"
	"github.com/systmms/gsmconfig/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Environment overrides for the global flags.
const (
	envConfig = "GSMCONFIG_CONFIG"
	envDebug  = "GSMCONFIG_DEBUG"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{}
	rt := commands.NewRuntime()

	rootCmd := &cobra.Command{
		Use:   "gsmconfig",
		Short: "Load application configuration from cloud secret stores",
		Long: `gsmconfig builds a configuration tree from secrets held in Google Cloud
Secret Manager, AWS Secrets Manager or Azure Key Vault.

Sources are declared in gsmconfig.yaml: key/value sources map one secret to
one key ("app__Email__Host" becomes "Email:Host"), JSON sources flatten a
single secret holding a JSON object.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", envOr(envConfig, config.DefaultPath), "Config file path (env "+envConfig+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", envBool(envDebug), "Enable debug logging (env "+envDebug+")")

	rootCmd.AddCommand(
		commands.NewLoadCommand(cfg, rt),
		commands.NewGetCommand(cfg, rt),
		commands.NewProjectCommand(cfg, rt),
		commands.NewDoctorCommand(cfg, rt),
		commands.NewStoresCommand(cfg, rt),
		commands.NewWatchCommand(cfg, rt),
		commands.NewCompletionCommand(),
	)

	return rootCmd.Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
