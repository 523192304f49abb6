package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	Security    SecurityConfig    `yaml:"security"`
	Logging     LoggingConfig     `yaml:"logging"`
	PromptBuild PromptBuildConfig `yaml:"promptbuild"`
}

type SecurityConfig struct {
	// AllowedPaths restricts which files templates, references and images
	// may be read from. Empty means unrestricted.
	AllowedPaths []string `yaml:"allowed_paths"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// PromptBuildConfig configures payload assembly, auditing and the record store.
type PromptBuildConfig struct {
	RootDir      string `yaml:"root_dir,omitempty"`
	TemplatesDir string `yaml:"templates_dir,omitempty"`
	PresetsDir   string `yaml:"presets_dir,omitempty"`

	// DefaultImageDetail applies when a request sets no image_detail.
	DefaultImageDetail string `yaml:"default_image_detail,omitempty"`

	AuditEnabled       bool   `yaml:"audit_enabled"`
	AuditDir           string `yaml:"audit_dir,omitempty"`
	AuditRetentionDays int    `yaml:"audit_retention_days,omitempty"`
	AuditFilePrefix    string `yaml:"audit_file_prefix,omitempty"`

	// RecordsPath is the SQLite database for recorded assemblies.
	RecordsPath string `yaml:"records_path,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Security: SecurityConfig{
			AllowedPaths: []string{},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		PromptBuild: PromptBuildConfig{
			RootDir:            ".",
			TemplatesDir:       "prompts",
			PresetsDir:         "prompts/presets",
			DefaultImageDetail: "auto",
			AuditEnabled:       false,
			AuditDir:           ".contentkit/audit",
			AuditRetentionDays: 7,
			AuditFilePrefix:    "contentkit",
			RecordsPath:        ".contentkit/records.db",
		},
	}
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".contentkit.yaml")
}

// Load reads the config next to the executable, falling back to defaults.
func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads a YAML config file. A missing file yields defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides file values with CONTENTKIT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CONTENTKIT_ROOT_DIR"); v != "" {
		c.PromptBuild.RootDir = v
	}
	if v := os.Getenv("CONTENTKIT_IMAGE_DETAIL"); v != "" {
		c.PromptBuild.DefaultImageDetail = v
	}
	if v := os.Getenv("CONTENTKIT_AUDIT"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.PromptBuild.AuditEnabled = b
		}
	}
	if v := os.Getenv("CONTENTKIT_RECORDS_PATH"); v != "" {
		c.PromptBuild.RecordsPath = v
	}
	if v := os.Getenv("CONTENTKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Save writes c as YAML to path, creating its directory when needed.
// The file is written owner-only.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
