package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	filterTo     string
	filterVerify bool
)

var filterCmd = &cobra.Command{
	Use:   "filter <list>...",
	Short: "Filter a recipient list",
	Long: `Split a comma separated recipient list into accepted, invalid and
duplicate addresses, and print the tab separated line the compose form
reads. The sender given with --to is dropped from the list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		if cmd.Flags().Changed("verify") {
			client = client.WithVerify(filterVerify)
		}

		result := client.FilterRecipients(cmd.Context(), filterTo, strings.Join(args, ","))
		fmt.Fprintln(cmd.OutOrStdout(), result.String())
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVar(&filterTo, "to", "", "sender address removed from the list")
	filterCmd.Flags().BoolVar(&filterVerify, "verify", false, "require an MX record for each domain")
}
