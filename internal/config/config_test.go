package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.Rules.Enabled || !cfg.Rules.DuplicateTitles {
		t.Error("rules should be enabled by default")
	}
	if cfg.Rules.UncompressedSizeLimit != 500_000_000 {
		t.Errorf("uncompressed limit = %d", cfg.Rules.UncompressedSizeLimit)
	}
	if cfg.Rules.CompressedSizeLimit != 125_000_000 {
		t.Errorf("compressed limit = %d", cfg.Rules.CompressedSizeLimit)
	}
}

func TestFromYAMLFillsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("rules:\n  enabled: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rules.UncompressedSizeLimit != 500_000_000 || cfg.Rules.CompressedSizeLimit != 125_000_000 {
		t.Errorf("limits = %d / %d", cfg.Rules.UncompressedSizeLimit, cfg.Rules.CompressedSizeLimit)
	}
}

func TestFromYAMLRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"negative limit", "rules:\n  uncompressed_size_limit: -1\n"},
		{"compressed above uncompressed", "rules:\n  uncompressed_size_limit: 100\n  compressed_size_limit: 200\n"},
		{"unknown log level", "log:\n  level: loud\n"},
		{"not yaml", ":\n  - ]["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromYAML([]byte(tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault()))
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if cfg.Server.BasePath != "/submission" {
		t.Errorf("base path = %q", cfg.Server.BasePath)
	}
}

func TestLoadOptional(t *testing.T) {
	ws := t.TempDir()
	cfg, err := LoadOptional(ws)
	if err != nil {
		t.Fatalf("missing config should fall back to defaults: %v", err)
	}
	if !cfg.Rules.Enabled {
		t.Error("fallback config should enable rules")
	}

	if err := os.WriteFile(Path(ws), []byte("rules:\n  enabled: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(ws)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rules.Enabled {
		t.Error("file config not honored")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestPath(t *testing.T) {
	if got := Path("/work"); got != filepath.Join("/work", "subline.yml") {
		t.Errorf("path = %q", got)
	}
	if got := Path(""); got != "subline.yml" {
		t.Errorf("empty workspace path = %q", got)
	}
}
