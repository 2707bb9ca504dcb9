package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/kioskcache/internal/app"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and activate the configured generation",
	Long: `Install fetches every shell file of the configured generation into its
shell partition, then activates it and deletes the partitions of older
generations. If any shell file fails to load nothing is written and the
previous generation stays active.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		reg, err := application.Install(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Generation %s active (install %s)\n", reg.Generation, reg.InstallID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
