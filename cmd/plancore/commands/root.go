package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/plancore/pkg/config"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

// Global flags
var (
	verbose    bool
	jsonOutput bool
	configFile string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plancore",
		Short: "plancore - planning domain descriptor tooling",
		Long: `plancore checks and inspects the configuration files of planning processes.

A configuration file carries the logging, metrics and supply settings of a
process and, optionally, the descriptor table of its planning domain: the
entity types, their planning and shadow variables, value range providers,
pinning and difficulty settings, and the lookup strategy.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var tel *telemetry.Telemetry
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return nil
		}
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		tel, err = telemetry.NewTelemetry(cfg.Telemetry())
		if err != nil {
			return fmt.Errorf("failed to set up telemetry: %w", err)
		}
		log.Logger = tel.Logger.Zerolog()
		cmd.SetContext(tel.WithContext(cmd.Context()))
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if tel == nil {
			return nil
		}
		return tel.Shutdown(cmd.Context())
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "process configuration whose logging, metrics and tracing settings apply")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newDescribeCommand())

	return rootCmd
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
