// Package config loads appget settings from appget.yaml and APPGET_* env vars.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ralt/appget/internal/models"
	"github.com/spf13/viper"
)

// DefaultAPIRoot is the public catalog endpoint
const DefaultAPIRoot = "https://api.appget.net/v1"

type Config struct {
	APIRoot          string   `mapstructure:"api_root"`
	TempDir          string   `mapstructure:"temp_dir"`
	DataDir          string   `mapstructure:"data_dir"`
	KeyringPath      string   `mapstructure:"keyring_path"`
	PreserveExisting bool     `mapstructure:"preserve_existing"`
	KindPriority     []string `mapstructure:"kind_priority"`
	S3Region         string   `mapstructure:"s3_region"`
}

func Default() *Config {
	return &Config{
		APIRoot: DefaultAPIRoot,
		TempDir: filepath.Join(os.TempDir(), "appget"),
		DataDir: dataDir(),
	}
}

// Load reads cfgFile, or appget.yaml from the config dir or the working
// directory when cfgFile is empty. A missing file yields the defaults.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("appget")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("APPGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"api_root", "temp_dir", "data_dir", "keyring_path", "preserve_existing", "kind_priority", "s3_region"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, models.NewError(models.ErrInvalidConfig, cfgFile, "failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, cfgFile, "failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validKinds = map[string]bool{
	"msi":     true,
	"rpm":     true,
	"archive": true,
	"exe":     true,
	"unknown": true,
}

// Validate checks the config and returns all problems joined together
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIRoot)
	if err != nil {
		errs = append(errs, fmt.Errorf("api_root %q is not a valid URL: %w", c.APIRoot, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("api_root scheme must be http or https, got %q", u.Scheme))
	}

	if c.TempDir == "" {
		errs = append(errs, errors.New("temp_dir must not be empty"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}

	for _, k := range c.KindPriority {
		if !validKinds[strings.ToLower(k)] {
			errs = append(errs, fmt.Errorf("unknown installer kind %q in kind_priority", k))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return models.NewError(models.ErrInvalidConfig, "", "%w", errors.Join(errs...))
}

// LedgerPath is where strategies that lay files down record installed products
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "products.json")
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "AppGet")
	case "darwin":
		return "/Library/Application Support/AppGet"
	default:
		return "/etc/appget"
	}
}

func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "AppGet", "data")
	default:
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", "appget")
		}
		return filepath.Join(os.TempDir(), "appget-data")
	}
}
