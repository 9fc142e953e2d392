package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

var (
	resolveName    string
	resolveEmail   string
	resolveReplyTo string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the sender a message would go out with",
	Long: `Apply the active provider plugin's sender rules to the given name,
address and reply-to, and print the result.`,
	Args: cobra.NoArgs,
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

		requested := quickmail.Identity{Name: resolveName, Email: resolveEmail, ReplyTo: resolveReplyTo}
		resolved, active := client.ResolveSender(cmd.Context(), requested)
		printIdentity(cmd.OutOrStdout(), resolved, active)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "requested sender name")
	resolveCmd.Flags().StringVar(&resolveEmail, "email", "", "requested sender address")
	resolveCmd.Flags().StringVar(&resolveReplyTo, "reply-to", "", "requested reply-to address")
}

func printIdentity(w io.Writer, id quickmail.Identity, active quickmail.Active) {
	fmt.Fprintf(w, "Provider: %s\n", active.Kind)
	fmt.Fprintf(w, "Name:     %s\n", id.Name)
	fmt.Fprintf(w, "Email:    %s\n", id.Email)
	fmt.Fprintf(w, "Reply-To: %s\n", id.ReplyTo)
	if active.Kind == sender.SparkPost {
		fmt.Fprintf(w, "Same domain as SparkPost sender: %t\n",
			sender.UsingSparkPostDomain(resolveEmail, active.SparkPost))
	}
}
