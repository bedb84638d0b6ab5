package main

import (
	"os"

	"github.com/spf13/cobra"

	"budgetreview/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Top drivers, category totals and the itemized table",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	s, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.store.View(cmd.Context(), params())
	if err != nil {
		return err
	}
	d := s.cfg.File.Dashboard
	return report.Render(os.Stdout, v, d.Title, d.Subtitle)
}
