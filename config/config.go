// Package config loads cfrepro settings from the user's config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StorageGSUtil = "gsutil"
	StorageAPI    = "api"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	// ClusterfuzzDir holds credentials, downloaded builds, testcases and
	// history.
	ClusterfuzzDir string `yaml:"clusterfuzz_dir" validate:"required"`
	// GomaDir is the goma installation started before builds.
	GomaDir string `yaml:"goma_dir" validate:"required"`
	// V8Src is the V8 checkout used to build binaries. Empty means ask.
	V8Src string `yaml:"v8_src"`
	// StorageBackend selects how build archives are copied.
	StorageBackend string `yaml:"storage_backend" validate:"oneof=gsutil api"`
	// JobsMultiplier scales the CPU count into ninja's parallelism.
	JobsMultiplier  int    `yaml:"jobs_multiplier" validate:"min=1"`
	TestcaseInfoURL string `yaml:"testcase_info_url" validate:"required,url"`
	DownloadURL     string `yaml:"testcase_download_url" validate:"required,url"`
	NumberingURL    string `yaml:"numbering_url" validate:"required,url"`
}

// Default returns the built-in settings.
func Default() Config {
	home := homeDir()
	return Config{
		ClusterfuzzDir:  filepath.Join(home, ".clusterfuzz"),
		GomaDir:         filepath.Join(home, "goma"),
		StorageBackend:  StorageGSUtil,
		JobsMultiplier:  10,
		TestcaseInfoURL: "https://cluster-fuzz.appspot.com/v2/testcase-detail/oauth",
		DownloadURL:     "https://cluster-fuzz.appspot.com/v2/testcase-detail/download-testcase/oauth",
		NumberingURL:    "https://cr-rev.appspot.com/_ah/api/crrev/v1/get_numbering",
	}
}

// DefaultPath is the config file location following XDG conventions.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(configHome, "cfrepro", "config.yaml")
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.expand()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CLUSTERFUZZ_DIR"); v != "" {
		c.ClusterfuzzDir = v
	}
	if v := os.Getenv("GOMA_DIR"); v != "" {
		c.GomaDir = v
	}
	if v := os.Getenv("V8_SRC"); v != "" {
		c.V8Src = v
	}
}

func (c *Config) expand() {
	c.ClusterfuzzDir = ExpandHome(c.ClusterfuzzDir)
	c.GomaDir = ExpandHome(c.GomaDir)
	c.V8Src = ExpandHome(c.V8Src)
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AuthFile is the stored credential location.
func (c Config) AuthFile() string {
	return filepath.Join(c.ClusterfuzzDir, "auth_header")
}

// BuildsDir holds downloaded builds.
func (c Config) BuildsDir() string {
	return filepath.Join(c.ClusterfuzzDir, "builds")
}

// TestcasesDir holds downloaded testcase files.
func (c Config) TestcasesDir() string {
	return filepath.Join(c.ClusterfuzzDir, "testcases")
}

// HistoryDir holds reproduction records.
func (c Config) HistoryDir() string {
	return filepath.Join(c.ClusterfuzzDir, "history")
}

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return p
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}
