package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/varoOP/kioskcache/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache partitions and registrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		stats, err := application.Stats(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PARTITION\tENTRIES\tSIZE")
		for _, p := range stats.Partitions {
			fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.Entries, humanize.Bytes(uint64(p.Bytes)))
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "GENERATION\tSTATE\tINSTALL ID\tCREATED")
		for _, r := range stats.Registrations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Generation, r.State, r.InstallID, humanize.Time(r.CreatedAt))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
