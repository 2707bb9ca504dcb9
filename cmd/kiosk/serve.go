package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/kioskcache/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk proxy",
	Long: `Serve resumes the last activated generation, installs the configured one
and then proxies every kiosk request through the offline cache:
  - same-origin assets are served cache-first
  - the content endpoint and other hosts are served network-first,
    falling back to the cache and, for page loads, to the root document
  - non-GET requests go straight to the network`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := application.Serve(ctx); err != nil {
			return fmt.Errorf("serve failed: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "address the proxy listens on")
	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen"))
	rootCmd.AddCommand(serveCmd)
}
