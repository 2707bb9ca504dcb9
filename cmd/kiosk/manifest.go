package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/kioskcache/internal/app"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest <path>",
	Short: "Write the configured shell manifest",
	Long: `Manifest writes the configured generation and shell files as YAML. Point
shell_manifest at the file to roll out a new generation without changing the
main config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		if err := application.WriteManifest(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Wrote %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
