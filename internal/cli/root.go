// Package cli holds the surveychat commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command of the surveychat CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surveychat",
		Short: "Conversational survey server",
		Long:  "Serves surveys as chat conversations over websockets and manages survey definitions over REST.",
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewValidateCommand())

	return cmd
}
