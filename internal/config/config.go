package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models subline.yml.
type Config struct {
	Rules struct {
		// Enabled toggles rule evaluation on save.
		Enabled bool `yaml:"enabled"`
		// UncompressedSizeLimit is the uncompressed source size, in bytes,
		// above which a submission is placed on hold.
		UncompressedSizeLimit int64 `yaml:"uncompressed_size_limit"`
		// CompressedSizeLimit is the compressed source size, in bytes,
		// above which a submission is placed on hold.
		CompressedSizeLimit int64 `yaml:"compressed_size_limit"`
		// DuplicateTitles toggles duplicate-title annotation.
		DuplicateTitles bool `yaml:"duplicate_titles"`
	} `yaml:"rules"`
	Server struct {
		Addr      string `yaml:"addr"`
		BasePath  string `yaml:"base_path"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

const (
	defaultUncompressedSizeLimit = 500_000_000
	defaultCompressedSizeLimit   = 125_000_000
)

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with sl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Rules.UncompressedSizeLimit <= 0 {
		return fmt.Errorf("config.rules.uncompressed_size_limit must be positive")
	}
	if c.Rules.CompressedSizeLimit <= 0 {
		return fmt.Errorf("config.rules.compressed_size_limit must be positive")
	}
	if c.Rules.CompressedSizeLimit > c.Rules.UncompressedSizeLimit {
		return fmt.Errorf("config.rules.compressed_size_limit must not exceed the uncompressed limit")
	}
	switch c.Log.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level %q is not a known level", c.Log.Level)
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "subline.yml")
}

// GenerateDefault returns the default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Omitted size
// limits fall back to the defaults.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if cfg.Rules.UncompressedSizeLimit == 0 {
		cfg.Rules.UncompressedSizeLimit = defaultUncompressedSizeLimit
	}
	if cfg.Rules.CompressedSizeLimit == 0 {
		cfg.Rules.CompressedSizeLimit = defaultCompressedSizeLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `rules:
  enabled: true
  uncompressed_size_limit: 500000000
  compressed_size_limit: 125000000
  duplicate_titles: true

server:
  addr: ":8240"
  base_path: /submission
  jwt_secret: ""

log:
  level: info
  pretty: false
`
