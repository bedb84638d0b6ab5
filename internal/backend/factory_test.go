package backend

import (
	"context"
	"path/filepath"
	"testing"

	"budgetreview/internal/config"
	"budgetreview/internal/loader"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name       string
		cfg        Config
		wantWriter bool
		wantWatch  bool
	}{
		{"csv", Config{Type: CSVBackend, CSVPath: filepath.Join(dir, "b.csv"), Columns: loader.DefaultColumns()}, false, true},
		{"memory", Config{Type: MemoryBackend, DataDirectory: dir, Columns: loader.DefaultColumns()}, true, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "b.db")}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Close()
			if res.Reader == nil {
				t.Fatal("nil reader")
			}
			if (res.Writer != nil) != tt.wantWriter {
				t.Errorf("writer present = %v, want %v", res.Writer != nil, tt.wantWriter)
			}
			if (res.WatchPath != "") != tt.wantWatch {
				t.Errorf("watch path = %q", res.WatchPath)
			}
		})
	}
}

func TestCreateBackendInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "postgres"}},
		{"csv without path", Config{Type: CSVBackend, Columns: loader.DefaultColumns()}},
		{"sheets without id", Config{Type: SheetsBackend, GoogleSheetRange: "A1:B2", Columns: loader.DefaultColumns()}},
		{"memory without periods", Config{Type: MemoryBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{DataBackend: "csv", CSVPath: "budget.csv", DataDir: "data", File: config.DefaultFile()}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != CSVBackend || cfg.CSVPath != "budget.csv" || len(cfg.Columns.Periods) != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Error("expected error for invalid backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
