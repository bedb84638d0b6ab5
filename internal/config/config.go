package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budgetreview/internal/dashboard"
	"budgetreview/internal/engine"
	"budgetreview/internal/loader"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string
	CSVPath     string
	DataDir     string
	WatchSource bool

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetRange         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Access gate
	DashboardPassword string
	SessionTTL        time.Duration

	// View cache
	ViewCacheSize int
	ViewCacheTTL  time.Duration

	// Dashboard defaults
	BaseCurrency  string
	PriorPeriod   string
	CurrentPeriod string
	TopN          int
	ReserveMatch  string

	// Optional TOML file with columns, currencies and labels.
	ConfigFile string
	File       FileConfig

	loadErrors []string
}

// FileConfig is the TOML document named by BUDGET_CONFIG_FILE.
type FileConfig struct {
	Dashboard  DashboardConfig  `toml:"dashboard"`
	Columns    ColumnsConfig    `toml:"columns"`
	Currencies []CurrencyConfig `toml:"currencies"`
}

type DashboardConfig struct {
	Title      string `toml:"title"`
	Subtitle   string `toml:"subtitle"`
	ExportName string `toml:"export_name"`
	Prior      string `toml:"prior,omitempty"`
	Current    string `toml:"current,omitempty"`
	Reserve    string `toml:"reserve_match,omitempty"`
}

type ColumnsConfig struct {
	ID       string   `toml:"id"`
	Category string   `toml:"category"`
	Area     string   `toml:"area"`
	Note     string   `toml:"note"`
	Periods  []string `toml:"periods"`
}

// CurrencyConfig is one display currency. Rate is a decimal string so the
// multiplier is exact.
type CurrencyConfig struct {
	Code string `toml:"code"`
	Rate string `toml:"rate"`
}

const (
	DefaultTitle      = "Oasis Condominium: 2026 Operational Budget"
	DefaultSubtitle   = "Treasurer's report: comparing proposed 2026 budget vs. 2025 actual spend."
	DefaultExportName = "Oasis_2026_Budget"
	DefaultCSVPath    = "Oasis HOA Yearly Budget - Compare.csv"
)

var validBackends = []string{"csv", "memory", "sheets", "sqlite"}

// DefaultFile reproduces the original HOA dashboard.
func DefaultFile() FileConfig {
	cols := loader.DefaultColumns()
	return FileConfig{
		Dashboard: DashboardConfig{
			Title:      DefaultTitle,
			Subtitle:   DefaultSubtitle,
			ExportName: DefaultExportName,
		},
		Columns: ColumnsConfig{
			ID:       cols.ID,
			Category: cols.Category,
			Area:     cols.Area,
			Note:     cols.Note,
			Periods:  cols.Periods,
		},
		Currencies: []CurrencyConfig{
			{Code: "MXN", Rate: "1"},
			{Code: "USD", Rate: "0.058"},
			{Code: "CAD", Rate: "0.079"},
		},
	}
}

// Load reads the environment, and the TOML file when BUDGET_CONFIG_FILE is
// set. Environment variables win over the file. Problems are collected and
// reported by Validate.
func Load() *Config {
	cfg := &Config{File: DefaultFile()}
	cfg.ConfigFile = getEnv("BUDGET_CONFIG_FILE", "")
	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			cfg.loadErrors = append(cfg.loadErrors, err.Error())
		}
	}
	periods := cfg.File.Columns.Periods

	cfg.Port = getEnv("PORT", "8081")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.DataBackend = strings.ToLower(getEnv("DATA_BACKEND", "csv"))
	cfg.CSVPath = getEnv("BUDGET_CSV_PATH", DefaultCSVPath)
	cfg.DataDir = getEnv("BUDGET_DATA_DIR", "data")
	cfg.WatchSource = getEnvBool("WATCH_SOURCE", true)

	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", "./data/budget.db")

	cfg.AMQPURL = getEnv("AMQP_URL", "")
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", "budgetreview")
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", "dataset_updated")

	cfg.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", "")
	cfg.GoogleSheetRange = getEnv("GOOGLE_SHEET_RANGE", "Compare!A1:Z500")
	cfg.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	cfg.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "")

	cfg.DashboardPassword = getEnv("DASHBOARD_PASSWORD", "")
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 12*time.Hour)

	cfg.ViewCacheSize = getEnvInt("VIEW_CACHE_SIZE", 64)
	cfg.ViewCacheTTL = getEnvDuration("VIEW_CACHE_TTL", 10*time.Minute)

	cfg.BaseCurrency = strings.ToUpper(getEnv("BASE_CURRENCY", firstCode(cfg.File.Currencies)))
	cfg.PriorPeriod = getEnv("PRIOR_PERIOD", firstNonEmpty(cfg.File.Dashboard.Prior, nth(periods, 0)))
	cfg.CurrentPeriod = getEnv("CURRENT_PERIOD", firstNonEmpty(cfg.File.Dashboard.Current, nth(periods, len(periods)-1)))
	cfg.TopN = getEnvInt("TOP_N", dashboard.DefaultTopN)
	cfg.ReserveMatch = getEnv("RESERVE_MATCH", firstNonEmpty(cfg.File.Dashboard.Reserve, dashboard.DefaultReserveMatch))

	return cfg
}

func (c *Config) loadFile(path string) error {
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config file %s: %v", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		slog.Warn("Unknown keys in config file", "path", path, "keys", fmt.Sprint(undec))
	}
	def := DefaultFile()
	if md.IsDefined("dashboard") {
		d := fc.Dashboard
		if d.Title == "" {
			d.Title = def.Dashboard.Title
		}
		if d.Subtitle == "" {
			d.Subtitle = def.Dashboard.Subtitle
		}
		if d.ExportName == "" {
			d.ExportName = def.Dashboard.ExportName
		}
		c.File.Dashboard = d
	}
	if md.IsDefined("columns") {
		cols := fc.Columns
		if cols.ID == "" {
			cols.ID = def.Columns.ID
		}
		if cols.Category == "" {
			cols.Category = def.Columns.Category
		}
		if cols.Area == "" {
			cols.Area = def.Columns.Area
		}
		if cols.Note == "" {
			cols.Note = def.Columns.Note
		}
		if len(cols.Periods) == 0 {
			cols.Periods = def.Columns.Periods
		}
		c.File.Columns = cols
	}
	if len(fc.Currencies) > 0 {
		c.File.Currencies = fc.Currencies
	}
	return nil
}

// Columns returns the loader column mapping.
func (c *Config) Columns() loader.ColumnMap {
	return loader.ColumnMap{
		ID:       c.File.Columns.ID,
		Category: c.File.Columns.Category,
		Area:     c.File.Columns.Area,
		Note:     c.File.Columns.Note,
		Periods:  append([]string(nil), c.File.Columns.Periods...),
	}
}

// Rates returns the configured currencies in file order.
func (c *Config) Rates() (engine.Rates, error) {
	rates := make(engine.Rates, 0, len(c.File.Currencies))
	seen := make(map[string]bool, len(c.File.Currencies))
	for _, cur := range c.File.Currencies {
		code := strings.ToUpper(strings.TrimSpace(cur.Code))
		if code == "" {
			return nil, fmt.Errorf("currency with empty code")
		}
		if seen[code] {
			return nil, fmt.Errorf("duplicate currency %s", code)
		}
		seen[code] = true
		m, err := decimal.NewFromString(strings.TrimSpace(cur.Rate))
		if err != nil {
			return nil, fmt.Errorf("currency %s: invalid rate %q", code, cur.Rate)
		}
		if !m.IsPositive() {
			return nil, fmt.Errorf("currency %s: rate must be positive", code)
		}
		rates = append(rates, engine.Rate{Code: code, Multiplier: m})
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no currencies configured")
	}
	return rates, nil
}

// Defaults returns the dashboard parameters used for blank request fields.
func (c *Config) Defaults() dashboard.Params {
	return dashboard.Params{
		Currency:     c.BaseCurrency,
		Prior:        c.PriorPeriod,
		Current:      c.CurrentPeriod,
		TopN:         c.TopN,
		ReserveMatch: c.ReserveMatch,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, ok := ParseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "csv":
		if c.CSVPath == "" {
			errors = append(errors, "budget CSV path cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetRange == "" {
			errors = append(errors, "Google Sheet range is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.ViewCacheSize < 1 || c.ViewCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be between 1 and 10000", c.ViewCacheSize))
	}
	if c.ViewCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid view cache TTL %v: must be at least 1 second", c.ViewCacheTTL))
	}
	if c.TopN < 1 || c.TopN > dashboard.MaxTopN {
		errors = append(errors, fmt.Sprintf("invalid top N %d: must be between 1 and %d", c.TopN, dashboard.MaxTopN))
	}

	if rates, err := c.Rates(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currencies: %v", err))
	} else if _, err := rates.Lookup(c.BaseCurrency); err != nil {
		errors = append(errors, fmt.Sprintf("base currency '%s' is not among configured currencies %v", c.BaseCurrency, rates.Codes()))
	}

	cols := c.File.Columns
	if len(cols.Periods) < 2 {
		errors = append(errors, "at least two period columns are required")
	}
	if !contains(cols.Periods, c.PriorPeriod) {
		errors = append(errors, fmt.Sprintf("prior period '%s' is not a configured period column", c.PriorPeriod))
	}
	if !contains(cols.Periods, c.CurrentPeriod) {
		errors = append(errors, fmt.Sprintf("current period '%s' is not a configured period column", c.CurrentPeriod))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ParseLevel maps LOG_LEVEL values to slog levels.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func firstCode(cs []CurrencyConfig) string {
	if len(cs) == 0 {
		return ""
	}
	return cs[0].Code
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func nth(s []string, i int) string {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
