package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/varoOP/kioskcache/internal/app"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Load the kiosk content",
	Long: `Content loads the kiosk content through the offline cache and prints it
resolved for one language. Any BCP 47 tag or Accept-Language value is
accepted and matched onto ko, zh or en. When the content endpoint cannot be
reached and nothing is cached the built-in content is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		view, err := application.Content(cmd.Context(), lang)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

func init() {
	contentCmd.Flags().String("lang", "ko", "language tag to resolve content for")
	rootCmd.AddCommand(contentCmd)
}
