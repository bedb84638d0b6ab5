package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"budgetreview/internal/report"
)

var flagOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the itemized variance table as CSV",
	Long:  "Write the itemized variance table as CSV. With --output - the CSV goes to stdout.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default <export name>_Summary.csv, - for stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.store.View(cmd.Context(), params())
	if err != nil {
		return err
	}

	path := flagOutput
	if path == "" {
		path = report.FileName(s.cfg.File.Dashboard.ExportName)
	}
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if err := report.WriteCSV(w, v); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(os.Stderr, "  Wrote %d rows to %s\n", len(v.Rows), path)
	}
	return nil
}
