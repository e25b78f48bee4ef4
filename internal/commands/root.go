package commands

import "github.com/spf13/cobra"

// NewRootCommand builds the devpulse CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "devpulse",
		Short: "Engineering telemetry collector and report generator",
		Long: `devpulse fetches pull requests, issue tracker tickets and per-seat AI
usage events from their REST APIs, caches each calendar month as a JSON
artifact, and rolls the cached records into delivery, billing and adoption
reports.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		NewDeliveryCommand(),
		NewBillingCommand(),
		NewAdoptionCommand(),
		NewStatusCommand(),
	)
	return root
}
