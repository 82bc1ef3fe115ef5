package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Reconcile.UnitInterval != time.Second {
		t.Errorf("UnitInterval = %v, want 1s", cfg.Reconcile.UnitInterval)
	}
	if cfg.Reconcile.OverlayInterval != 750*time.Millisecond {
		t.Errorf("OverlayInterval = %v, want 750ms", cfg.Reconcile.OverlayInterval)
	}
	if cfg.Yank.Timeout != 2*time.Second {
		t.Errorf("Yank.Timeout = %v, want 2s", cfg.Yank.Timeout)
	}
	if cfg.Keys.UnitToggle != "u" || cfg.Keys.FeetToggle != "'" {
		t.Errorf("Keys = %+v, want u and '", cfg.Keys)
	}
	if cfg.Selectors.Toolbar != ".tcv_toolbar" {
		t.Errorf("Toolbar = %q, want .tcv_toolbar", cfg.Selectors.Toolbar)
	}
	if len(cfg.Bindings) == 0 {
		t.Fatal("no default bindings")
	}
}

func TestDefaultBindings_ShiftVariants(t *testing.T) {
	type combo struct {
		key   string
		shift bool
	}
	seen := make(map[combo]string)
	for _, b := range DefaultBindings() {
		c := combo{b.Key, b.Shift}
		if prev, dup := seen[c]; dup {
			t.Errorf("duplicate binding for %+v: %q and %q", c, prev, b.Target)
		}
		seen[c] = b.Target
	}
	if seen[combo{"f", false}] != ".tcv_front" || seen[combo{"f", true}] != ".tcv_rear" {
		t.Error("f / shift+f must map to front / rear")
	}
	if seen[combo{"t", false}] != ".tcv_top" || seen[combo{"t", true}] != ".tcv_bottom" {
		t.Error("t / shift+t must map to top / bottom")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadkeys.yaml")
	data := `
page:
  url: http://localhost:3939/viewer
reconcile:
  unit_interval: 2s
yank:
  timeout: 5s
bindings:
  - key: q
    target: .tcv_iso
    label: Iso
selectors:
  toolbar: .custom_toolbar
control:
  addr: 127.0.0.1:8377
  mcp: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Page.URL != "http://localhost:3939/viewer" {
		t.Errorf("URL = %q", cfg.Page.URL)
	}
	if cfg.Reconcile.UnitInterval != 2*time.Second {
		t.Errorf("UnitInterval = %v, want 2s", cfg.Reconcile.UnitInterval)
	}
	// Unset fields still get defaults.
	if cfg.Reconcile.OverlayInterval != 750*time.Millisecond {
		t.Errorf("OverlayInterval = %v, want default 750ms", cfg.Reconcile.OverlayInterval)
	}
	if cfg.Yank.Timeout != 5*time.Second {
		t.Errorf("Yank.Timeout = %v, want 5s", cfg.Yank.Timeout)
	}
	// Explicit bindings replace the stock table.
	if len(cfg.Bindings) != 1 || cfg.Bindings[0].Target != ".tcv_iso" {
		t.Errorf("Bindings = %+v", cfg.Bindings)
	}
	if cfg.Selectors.Toolbar != ".custom_toolbar" {
		t.Errorf("Toolbar = %q", cfg.Selectors.Toolbar)
	}
	if cfg.Selectors.Row != ".tcv_measure_row" {
		t.Errorf("Row = %q, want default", cfg.Selectors.Row)
	}
	if cfg.Control.Addr != "127.0.0.1:8377" || !cfg.Control.MCP {
		t.Errorf("Control = %+v", cfg.Control)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile of missing file succeeded")
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("page: [broken"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile of invalid YAML succeeded")
	}
}
