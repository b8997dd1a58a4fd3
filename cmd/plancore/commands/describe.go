package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/plancore/pkg/descriptor"
)

func newDescribeCommand() *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Describe a domain descriptor table",
		Long: `Describe the planning domain declared in a configuration file.

For every entity type the output lists the effective movable filter, the
difficulty ordering and each variable with its role (scalar, list or shadow),
its value range providers and, for shadows, its sources. Inherited variables
are marked.`,
		Example: `  # Describe as YAML
  plancore describe plancore.yaml

  # Describe a bare descriptor as JSON
  plancore describe --bare --json domain.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := loadDomain(args[0], bare)
			if err != nil {
				return err
			}
			summary, err := descriptor.Summarize(domain)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(summary); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "file holds only a domain descriptor table")

	return cmd
}
