package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
)

var validateVerify bool

var validateCmd = &cobra.Command{
	Use:   "validate <address>...",
	Short: "Check addresses",
	Long: `Check each address for length and syntax. With --verify the domain
must also publish an MX record.

Prints OK or INVALID with the reason for each address, and fails when any
address is invalid.`,
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
			client = client.WithVerify(validateVerify)
		}

		invalid := 0
		for _, addr := range args {
			outcome := client.Classify(cmd.Context(), addr)
			if outcome == quickmail.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "OK\t%s\n", addr)
				continue
			}
			invalid++
			fmt.Fprintf(cmd.OutOrStdout(), "INVALID\t%s\t%s\n", addr, outcome)
		}

		if invalid > 0 {
			return fmt.Errorf("%d of %d addresses invalid", invalid, len(args))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateVerify, "verify", false, "require an MX record for each domain")
}
