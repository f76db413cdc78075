package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/qrfield/internal/model"
)

func TestLoadMissingDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("QRFIELD_CONFIG", "")
	t.Setenv("QRFIELD_DB", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Renderer.Backend != "builtin" {
		t.Errorf("expected builtin backend, got %q", cfg.Renderer.Backend)
	}
	if filepath.Base(cfg.DB) != "qrfield.db" {
		t.Errorf("unexpected default db %q", cfg.DB)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("QRFIELD_DB", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte(`
version: 1
db: /data/qr.db
temp_dir: /data/tmp
renderer:
  backend: qrencode
  search_paths: [/opt/qr/bin/qrencode]
log:
  level: debug
  format: json
`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "/data/qr.db" || cfg.TempDir != "/data/tmp" {
		t.Errorf("paths not loaded: %+v", cfg)
	}
	if cfg.Renderer.Backend != "qrencode" || len(cfg.Renderer.SearchPaths) != 1 {
		t.Errorf("renderer not loaded: %+v", cfg.Renderer)
	}
	if cfg.Listen == "" {
		t.Error("expected default listen address to survive partial file")
	}

	t.Setenv("QRFIELD_DB", "/env/override.db")
	cfg, _ = Load(path)
	if cfg.DB != "/env/override.db" {
		t.Errorf("expected env override, got %q", cfg.DB)
	}
}

func TestLoadUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("version: 2\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestParseProject(t *testing.T) {
	p, err := ParseProject([]byte(`
version: 1
project:
  id: 14
  name: Badges
events:
  - id: 40
    name: baseline
  - id: 41
    name: visits
    repeating: true
  - id: 42
    name: followup
    repeating_forms: [badge]
forms:
  - name: enrollment
    fields:
      - name: record_id
      - name: dob
        type: text
        validation: date_ymd
  - name: badge
    fields:
      - name: badge_text
        type: text
      - name: badge_qr
        type: file
        annotation: '@QRCODE="badge_text"'
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.ID != 14 || p.Name != "Badges" {
		t.Errorf("unexpected header: %d %q", p.ID, p.Name)
	}
	if len(p.Events) != 3 || !p.IsRepeatingEvent(41) || !p.IsRepeatingForm(42, "badge") {
		t.Errorf("events not parsed: %+v", p.Events)
	}
	if p.Fields["record_id"].Kind != model.KindText {
		t.Error("expected default kind text")
	}
	qr := p.Fields["badge_qr"]
	if qr.Kind != model.KindFile || qr.Form != "badge" || qr.Annotation != `@QRCODE="badge_text"` {
		t.Errorf("unexpected field: %+v", qr)
	}
	if got := p.Forms[1].Fields; len(got) != 2 || got[0] != "badge_text" {
		t.Errorf("unexpected form fields: %v", got)
	}
}

func TestParseProjectErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad version", "version: 3\nproject: {id: 1}\n"},
		{"missing id", "version: 1\nproject: {name: x}\n"},
		{"duplicate field", "version: 1\nproject: {id: 1}\nforms:\n  - name: a\n    fields: [{name: f}]\n  - name: b\n    fields: [{name: f}]\n"},
		{"unnamed field", "version: 1\nproject: {id: 1}\nforms:\n  - name: a\n    fields: [{type: text}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseProject([]byte(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseProjectDefaultEvent(t *testing.T) {
	p, err := ParseProject([]byte("version: 1\nproject: {id: 3}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Events) != 1 || p.Events[0].ID != 1 {
		t.Errorf("expected default event 1, got %+v", p.Events)
	}
}
