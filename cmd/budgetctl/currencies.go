package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetreview/internal/report"
)

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "List configured display currencies and rates",
	RunE:  runCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)
}

func runCurrencies(cmd *cobra.Command, _ []string) error {
	s, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	base := s.rates.Base()
	rows := make([][]string, 0, len(s.rates))
	for _, r := range s.rates {
		marker := ""
		if r.Code == s.cfg.BaseCurrency {
			marker = "default"
		}
		rows = append(rows, []string{r.Code, r.Multiplier.String(), marker})
	}
	fmt.Println()
	fmt.Print(report.RenderTable(report.Table{
		Title:   fmt.Sprintf("Rates per 1 %s", base),
		Headers: []string{"Code", "Rate", ""},
		Rows:    rows,
	}))
	return nil
}
