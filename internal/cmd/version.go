package cmd

import (
	"github.com/spf13/cobra"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		quickmail.PrintVersion(cmd.OutOrStdout())
	},
}
