package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budgetreview/internal/amqp"
	"budgetreview/internal/cli"
	"budgetreview/internal/services"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Store the current source as a SQLite snapshot and announce it",
	Long: "Read the configured source (or --source), replace the snapshot in SQLITE_DB_PATH " +
		"and publish dataset.updated when AMQP_URL is set so running servers reload.",
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	repo, err := cli.InitSQLite(s.logger, s.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var publisher services.Publisher
	if s.cfg.AMQPURL != "" {
		client, err := amqp.NewClient(s.cfg.AMQPURL, s.cfg.AMQPExchange, s.cfg.AMQPQueue)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Broker unavailable, servers will not be notified: %v\n", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	res, err := services.NewImportService(repo, publisher).Import(ctx, s.backend.Reader)
	if err != nil {
		return err
	}
	fmt.Printf("  Imported %d line items over %d periods from %s as version %d\n",
		res.Items, res.Periods, res.Source, res.Version)
	if res.Published {
		fmt.Println("  Published dataset.updated")
	}
	return nil
}
