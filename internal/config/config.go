// Package config loads the per-instance config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// SecretEnv overrides auth.jwt_secret when set.
const SecretEnv = "CHATCONSOLE_JWT_SECRET"

// Config represents an instance's config.toml.
type Config struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Call   CallConfig   `toml:"call"`
	Worker WorkerConfig `toml:"worker"`
	Log    LogConfig    `toml:"log"`
	Client ClientConfig `toml:"client"`
}

type ServerConfig struct {
	HTTPAddr  string `toml:"http_addr"`
	PublicURL string `toml:"public_url"`
}

type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	Operators []string `toml:"operators"`
	TokenTTL  Duration `toml:"token_ttl"`
	MediaTTL  Duration `toml:"media_ttl"`
}

type CallConfig struct {
	BaseURL string `toml:"base_url"`
}

type WorkerConfig struct {
	// SandboxHosts are host substrings where the service worker is not
	// registered.
	SandboxHosts []string `toml:"sandbox_hosts"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// ClientConfig is read by chattui and chatctl on the daemon's host.
type ClientConfig struct {
	Operator string `toml:"operator"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used for unset keys.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:  "127.0.0.1:8080",
			PublicURL: "http://127.0.0.1:8080",
		},
		Auth: AuthConfig{
			TokenTTL: Duration{12 * time.Hour},
			MediaTTL: Duration{time.Hour},
		},
		Worker: WorkerConfig{
			SandboxHosts: []string{"stackblitz", "webcontainer"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads config from path over the defaults. A missing file yields the
// defaults. The secret environment override is applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s := os.Getenv(SecretEnv); s != "" {
		cfg.Auth.JWTSecret = s
	}
	return cfg, nil
}

// Validate checks the settings the daemon cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if len(strings.TrimSpace(c.Auth.JWTSecret)) < 16 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 16 characters (or set %s)", SecretEnv))
	}
	hasOperator := false
	for _, op := range c.Auth.Operators {
		if strings.TrimSpace(op) != "" {
			hasOperator = true
			break
		}
	}
	if !hasOperator {
		errs = append(errs, errors.New("auth.operators must list at least one operator email"))
	}
	if c.Server.HTTPAddr == "" {
		errs = append(errs, errors.New("server.http_addr is required"))
	}
	if c.Auth.TokenTTL.Duration <= 0 || c.Auth.MediaTTL.Duration <= 0 {
		errs = append(errs, errors.New("auth.token_ttl and auth.media_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Global is the optional ~/.chatconsole/config.toml.
type Global struct {
	DefaultInstance string `toml:"default_instance"`
}

// LoadGlobal reads the global config. Returns error if the file is missing.
func LoadGlobal(path string) (*Global, error) {
	var g Global
	if _, err := toml.DecodeFile(path, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
