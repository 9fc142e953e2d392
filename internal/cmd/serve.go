package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
	"github.com/saberonline/quick-mail-wp-plugin/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the address validation endpoint",
	Long: `Serve /validate for the compose page and /healthz for probes until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Server.Listen = serveListen
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Config{
			Listen:          cfg.Server.Listen,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			ServerHeader:    quickmail.GetVersionInfo().UserAgent(),
		}, client.WithVerify(true), client.WithVerify(false), client.Logger())

		return srv.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
}
