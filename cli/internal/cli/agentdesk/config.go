package agentdesk

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// NewConfigCmd creates the config command
func NewConfigCmd(g *GlobalConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	var showSecrets bool
	view := &cobra.Command{
		Use:   "view",
		Short: "Print the configuration after merging file, environment and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Config()
			if err != nil {
				return err
			}
			out := *cfg
			if out.APIKey != "" && !showSecrets {
				out.APIKey = redacted
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(&out); err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			return enc.Close()
		},
	}
	view.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the API key instead of redacting it")

	cmd.AddCommand(view)
	return cmd
}
