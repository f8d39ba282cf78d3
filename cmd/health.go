package cmd

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the API is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := client.Health(cmd.Context())
		if err != nil {
			return err
		}
		p := newPrinter(cmd)
		p.Success("API at %s is healthy", cfg.API.BaseURL)
		return p.Payload(payload)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
