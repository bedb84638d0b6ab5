package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"budgetreview/internal/core"
	"budgetreview/internal/loader"
	"budgetreview/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ source.Reader = (*Client)(nil)

// Config selects the spreadsheet range and credentials.
type Config struct {
	SpreadsheetID   string
	Range           string
	CredentialsJSON string
	CredentialsFile string
	Columns         loader.ColumnMap
}

// fetchFunc returns the raw cell matrix of the configured range.
type fetchFunc func(ctx context.Context) ([][]interface{}, error)

// Client reads a budget comparison from a Google Sheets range.
type Client struct {
	spreadsheetID string
	rng           string
	columns       loader.ColumnMap
	fetch         fetchFunc
}

// New creates a Sheets-backed reader using service account credentials.
// When neither CredentialsJSON nor CredentialsFile is set,
// GOOGLE_APPLICATION_CREDENTIALS is consulted.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.Range) == "" {
		return nil, errors.New("missing sheet range")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := &Client{spreadsheetID: cfg.SpreadsheetID, rng: cfg.Range, columns: cfg.Columns}
	c.fetch = func(ctx context.Context) ([][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c.rng, err)
		}
		return resp.Values, nil
	}
	return c, nil
}

func (c *Client) Describe() string {
	return fmt.Sprintf("sheets:%s!%s", c.spreadsheetID, c.rng)
}

// ReadTable downloads the range and normalizes it.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	values, err := c.fetch(ctx)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(c.Describe(), err)
	}
	t, err := loader.NormalizeRows(toRows(values), c.columns)
	if err != nil {
		return core.Table{}, loader.NewDataSourceError(c.Describe(), err)
	}
	slog.DebugContext(ctx, "Read budget from sheets", "range", c.rng, "rows", len(values), "items", len(t.Items))
	return t, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credsJSON != "":
		raw = []byte(credsJSON)
	case credsFile != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service", "credentials_size", len(raw), "scope", gsheet.SpreadsheetsReadonlyScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}
