package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/openfroyo/plancore/pkg/telemetry"
)

func newValidateCommand() *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate configuration files",
		Long: `Validate plancore configuration files.

This command checks:
  - YAML syntax, rejecting unknown fields
  - Logging, metrics and supply settings
  - The domain descriptor table: entity and variable names, extends chains,
    value range references, shadow variable sources, difficulty settings
    and planning ids required by the lookup strategy

Code-side bindings (accessors, filters, comparators, listener factories) are
resolved when a process builds its descriptor and are not checked here.`,
		Example: `  # Validate a process configuration
  plancore validate plancore.yaml

  # Validate files holding only a descriptor table
  plancore validate --bare domain/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				domain, err := loadDomain(path, bare)
				if err != nil {
					failed++
					printf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				printf(cmd.OutOrStdout(), "ok   %s\n", path)
				if verbose {
					printf(cmd.OutOrStdout(), "     solution %s: %d entity types, %d fact types\n",
						domain.Name, len(domain.Entities), len(domain.Facts))
				}
			}

			telemetry.FromContext(cmd.Context()).
				WithField("files", len(args)).
				WithField("failed", failed).
				Debug("Validation finished")
			if failed > 0 {
				return errors.New("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "files hold only a domain descriptor table")

	return cmd
}
