package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/kioskcache/internal/app"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that the shell covers the root document's assets",
	Long: `Audit parses the root document cached for the active generation and lists
the same-origin scripts, stylesheets, images and videos it references that
are not part of the shell. Those only load offline if they were fetched while
online.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		report, err := application.Audit(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Generation: %s\n", report.Generation)
		fmt.Printf("Document:   %s\n", report.Document)
		fmt.Printf("Referenced: %d\n", len(report.Referenced))
		if len(report.Missing) == 0 {
			fmt.Println("All same-origin references are in the shell")
			return nil
		}

		fmt.Printf("Missing from shell (%d):\n", len(report.Missing))
		for _, m := range report.Missing {
			fmt.Printf("  %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
