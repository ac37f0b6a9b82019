package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{"http_addr": "0.0.0.0:9000", "trust_proxy": true, "disabled_tools": ["hivemind_submit"]}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy not set")
	}
	if cfg.SubmitPerHour != 10 {
		t.Errorf("SubmitPerHour = %d, want default 10", cfg.SubmitPerHour)
	}
	if !reflect.DeepEqual(cfg.DisabledTools, []string{"hivemind_submit"}) {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		HTTPAddr:      "127.0.0.1:8420",
		SubmitPerHour: 10,
		DisabledTools: []string{"hivemind_stats"},
	}
	overlay := &Config{
		SubmitPerHour: 50,
		TrustProxy:    true,
		DisabledTools: []string{"hivemind_stats", " hivemind_submit "},
	}

	got := Merge(base, overlay)

	if got.HTTPAddr != "127.0.0.1:8420" {
		t.Errorf("HTTPAddr = %q, want base value kept", got.HTTPAddr)
	}
	if got.SubmitPerHour != 50 {
		t.Errorf("SubmitPerHour = %d, want overlay value", got.SubmitPerHour)
	}
	if !got.TrustProxy {
		t.Error("TrustProxy should OR across configs")
	}
	want := []string{"hivemind_stats", "hivemind_submit"}
	if !reflect.DeepEqual(got.DisabledTools, want) {
		t.Errorf("DisabledTools = %v, want %v", got.DisabledTools, want)
	}
}
