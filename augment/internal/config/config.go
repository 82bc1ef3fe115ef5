// Package config handles cadkeys configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level cadkeys configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Page      PageConfig      `yaml:"page"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Yank      YankConfig      `yaml:"yank"`
	Keys      KeysConfig      `yaml:"keys"`
	Bindings  []Binding       `yaml:"bindings"`
	Selectors Selectors       `yaml:"selectors"`
	Journal   JournalConfig   `yaml:"journal"`
	Control   ControlConfig   `yaml:"control"`
}

// BrowserConfig controls how we reach Chrome.
type BrowserConfig struct {
	// Remote is the WebSocket URL of a running Chrome started with
	// --remote-debugging-port. Empty = launch a local instance.
	Remote string `yaml:"remote"`
	// Headless launches without a window. The viewer needs WebGL, so the
	// default is headful.
	Headless bool `yaml:"headless"`
	// XvfbDisplay runs the headful browser under Xvfb (for hosts without
	// a display). Empty = inherit the environment's DISPLAY.
	XvfbDisplay string `yaml:"xvfb_display"`
}

// PageConfig identifies the viewer page and the bootstrap behaviour.
type PageConfig struct {
	URL string `yaml:"url"`
	// BootstrapInterval is the poll cadence while waiting for the viewer
	// toolbar to exist. Default: 500ms.
	BootstrapInterval time.Duration `yaml:"bootstrap_interval"`
	// BootstrapAttempts bounds the wait. Default: 60.
	BootstrapAttempts int `yaml:"bootstrap_attempts"`
}

// ReconcileConfig holds the two independent reconciliation cadences. They
// are deliberately separate timers: the unit pass is gated on inch mode
// and cell divergence, the overlay pass on row-structure fingerprints.
type ReconcileConfig struct {
	UnitInterval    time.Duration `yaml:"unit_interval"`    // default 1s
	OverlayInterval time.Duration `yaml:"overlay_interval"` // default 750ms
}

// YankConfig tunes the yank sequence state machine.
type YankConfig struct {
	// Timeout resets an idle sequence and hides the which-key hint.
	Timeout time.Duration `yaml:"timeout"` // default 2s
}

// KeysConfig names the unit shortcut keys. The precision cycle is the
// unit-toggle key with shift held.
type KeysConfig struct {
	UnitToggle string `yaml:"unit_toggle"` // default "u"
	FeetToggle string `yaml:"feet_toggle"` // default "'"
}

// Binding maps one key (plus shift state) to a viewer toolbar button.
type Binding struct {
	Key    string `yaml:"key"`
	Shift  bool   `yaml:"shift"`
	Target string `yaml:"target"`
	Label  string `yaml:"label"`
}

// Selectors locates viewer structures. Defaults target the three-cad-viewer
// DOM (tcv_ class prefix) as rendered by the OCP CAD viewer.
type Selectors struct {
	Toolbar         string `yaml:"toolbar"`
	MeasureCell     string `yaml:"measure_cell"`
	AngleRow        string `yaml:"angle_row"`
	PropertiesPanel string `yaml:"properties_panel"`
	DistancePanel   string `yaml:"distance_panel"`
	Row             string `yaml:"row"`
	RowLabel        string `yaml:"row_label"`
	CellX           string `yaml:"cell_x"`
	CellY           string `yaml:"cell_y"`
	CellZ           string `yaml:"cell_z"`
	Subheader       string `yaml:"subheader"`
	ButtonFrame     string `yaml:"button_frame"`
	ActiveClass     string `yaml:"active_class"`
	ReferenceClass  string `yaml:"reference_class"`
}

// JournalConfig controls the optional SQLite action journal.
type JournalConfig struct {
	// Path of the journal database. Empty = journaling disabled.
	Path string `yaml:"path"`
}

// ControlConfig controls the localhost control surface.
type ControlConfig struct {
	// Addr for the HTTP API. Empty = HTTP disabled.
	Addr string `yaml:"addr"`
	// MCP serves MCP tools over stdio when true.
	MCP bool `yaml:"mcp"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied and no page URL.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Page.BootstrapInterval <= 0 {
		c.Page.BootstrapInterval = 500 * time.Millisecond
	}
	if c.Page.BootstrapAttempts <= 0 {
		c.Page.BootstrapAttempts = 60
	}
	if c.Reconcile.UnitInterval <= 0 {
		c.Reconcile.UnitInterval = time.Second
	}
	if c.Reconcile.OverlayInterval <= 0 {
		c.Reconcile.OverlayInterval = 750 * time.Millisecond
	}
	if c.Yank.Timeout <= 0 {
		c.Yank.Timeout = 2 * time.Second
	}
	if c.Keys.UnitToggle == "" {
		c.Keys.UnitToggle = "u"
	}
	if c.Keys.FeetToggle == "" {
		c.Keys.FeetToggle = "'"
	}
	if len(c.Bindings) == 0 {
		c.Bindings = DefaultBindings()
	}
	c.Selectors.applyDefaults()
}

func (s *Selectors) applyDefaults() {
	def := func(field *string, v string) {
		if *field == "" {
			*field = v
		}
	}
	def(&s.Toolbar, ".tcv_toolbar")
	def(&s.MeasureCell, ".tcv_measure_value")
	def(&s.AngleRow, ".tcv_angle_row")
	def(&s.PropertiesPanel, ".tcv_properties")
	def(&s.DistancePanel, ".tcv_distance_panel")
	def(&s.Row, ".tcv_measure_row")
	def(&s.RowLabel, ".tcv_label")
	def(&s.CellX, ".tcv_x")
	def(&s.CellY, ".tcv_y")
	def(&s.CellZ, ".tcv_z")
	def(&s.Subheader, ".tcv_subheader")
	def(&s.ButtonFrame, ".tcv_button_frame")
	def(&s.ActiveClass, "tcv_active")
	def(&s.ReferenceClass, "tcv_reference")
}

// DefaultBindings is the stock key table for the three-cad-viewer toolbar.
// View buttons get plain confirmation toasts; the rest toggle and report
// ON/OFF from the frame marker class.
func DefaultBindings() []Binding {
	return []Binding{
		// Camera views.
		{Key: "i", Target: ".tcv_iso", Label: "Isometric view"},
		{Key: "f", Target: ".tcv_front", Label: "Front view"},
		{Key: "f", Shift: true, Target: ".tcv_rear", Label: "Rear view"},
		{Key: "t", Target: ".tcv_top", Label: "Top view"},
		{Key: "t", Shift: true, Target: ".tcv_bottom", Label: "Bottom view"},
		{Key: "l", Target: ".tcv_left", Label: "Left view"},
		{Key: "r", Target: ".tcv_right", Label: "Right view"},
		// Toolbar toggles.
		{Key: "g", Target: ".tcv_grid", Label: "Grid"},
		{Key: "x", Target: ".tcv_axes", Label: "Axes"},
		{Key: "x", Shift: true, Target: ".tcv_axes0", Label: "Axes at origin"},
		{Key: "o", Target: ".tcv_ortho", Label: "Orthographic camera"},
		{Key: "p", Target: ".tcv_transparent", Label: "Transparency"},
		{Key: "e", Target: ".tcv_black_edges", Label: "Black edges"},
		{Key: "c", Target: ".tcv_clipping", Label: "Clipping"},
		{Key: "d", Target: ".tcv_explode", Label: "Explode"},
	}
}
