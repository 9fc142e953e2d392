/*
Package cmd provides the CLI commands for Quick Mail.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
)

var (
	cfgFile string
	verbose bool
	debug   bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quickmail",
	Short: "Send and validate mail for a WordPress site",
	Long: `Quick Mail sends a web page or a file to one address, and checks the
addresses typed into the compose form.

The sender is rewritten the way the active Mailgun, SparkPost or SendGrid
plugin would rewrite it, and the message goes out through that provider.

Example:
  quickmail send 1 mary@example.com https://example.com/news
  quickmail send admin@example.com 7 image.png "Beautiful Image"
  quickmail filter --to me@example.com "a@example.com, b@, a@example.com"
  quickmail serve --config quickmail.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	switch {
	case debug:
		log.SetLevel(log.DebugLevel)
	case verbose:
		log.SetLevel(log.InfoLevel)
	case quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

// loadConfig reads --config when given, otherwise the environment.
func loadConfig() (*quickmail.Config, error) {
	if cfgFile == "" {
		return quickmail.FromEnv(), nil
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}
	return quickmail.Load(cfgFile)
}

// newClient builds the client every command uses. The command's log level
// flags win over the configured level.
func newClient(cfg *quickmail.Config) (*quickmail.Client, error) {
	logger := quickmail.NewLogger(os.Stderr, cfg.Logging)
	if debug || verbose || quiet {
		logger.SetLevel(log.GetLevel())
	}
	return quickmail.New(*cfg, quickmail.WithLogger(logger))
}
