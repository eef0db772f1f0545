// Package config loads launchpad's configuration: where to cache releases and
// which tools (servers) can be launched.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	appName = "launchpad"

	// FileName is the configuration file name inside the config directory.
	FileName = "config.yaml"

	// DefaultServerID identifies the built-in server used when nothing is configured.
	DefaultServerID = "mcp-k8s"
)

// Config represents the user's launchpad configuration file.
type Config struct {
	CacheDir      string         `yaml:"cache_dir"`
	DefaultServer string         `yaml:"default_server"`
	Lock          bool           `yaml:"lock"`
	GitHub        GitHubConfig   `yaml:"github"`
	Servers       []ServerConfig `yaml:"servers"`
}

// GitHubConfig configures access to the GitHub Releases API.
type GitHubConfig struct {
	BaseURL string `yaml:"base_url"`
	// TokenEnv names the environment variable holding an API token.
	TokenEnv string `yaml:"token_env"`
}

// ServerConfig identifies a tool published as GitHub release archives.
type ServerConfig struct {
	ID   string `yaml:"id"`
	Tool string `yaml:"tool"`
	Repo string `yaml:"repo"`
	// Version is an optional version constraint, e.g. ">= 0.3, < 1.0".
	Version string `yaml:"version"`
	// ChecksumAsset names a release asset with sha256 sums to verify downloads against.
	ChecksumAsset string `yaml:"checksum_asset"`
}

// DefaultServer is the server launched when no configuration file exists.
func DefaultServer() ServerConfig {
	return ServerConfig{
		ID:   DefaultServerID,
		Tool: "mcp-k8s-go",
		Repo: "strowk/mcp-k8s-go",
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DefaultServer: DefaultServerID,
		GitHub: GitHubConfig{
			TokenEnv: "GITHUB_TOKEN",
		},
		Servers: []ServerConfig{DefaultServer()},
	}
}

// DefaultConfigDir returns the default configuration directory, respecting XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the path of the configuration file in DefaultConfigDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), FileName)
}

// DefaultCacheDir returns the default cache directory, respecting XDG_CACHE_HOME.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", appName)
	}

	return filepath.Join(home, ".cache", appName)
}

// Load reads the config from the given path and validates it.
// If the file doesn't exist, it returns Default() (no error).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}

		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	cfg.Servers = nil
	cfg.DefaultServer = ""

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(cfg.Servers) == 0 {
		cfg.Servers = []ServerConfig{DefaultServer()}

		if cfg.DefaultServer == "" {
			cfg.DefaultServer = DefaultServerID
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// ResolvedCacheDir returns CacheDir, or DefaultCacheDir when unset.
func (c *Config) ResolvedCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}

	return DefaultCacheDir()
}

// ServerCacheDir returns the cache root of a single server. Each server gets
// its own root so eviction for one tool never touches another.
func (c *Config) ServerCacheDir(id string) string {
	return filepath.Join(c.ResolvedCacheDir(), id)
}

// Token returns the API token from the configured environment variable.
func (c *Config) Token() string {
	if c.GitHub.TokenEnv == "" {
		return ""
	}

	return os.Getenv(c.GitHub.TokenEnv)
}

// FindServer looks up a server by ID. If id is empty, it returns the
// default server. Returns an error if the server is not found.
func (c *Config) FindServer(id string) (*ServerConfig, error) {
	if id == "" {
		id = c.DefaultServer
	}

	if id == "" && len(c.Servers) > 0 {
		return &c.Servers[0], nil
	}

	for i := range c.Servers {
		if c.Servers[i].ID == id {
			return &c.Servers[i], nil
		}
	}

	if id == "" {
		return nil, fmt.Errorf("no servers configured")
	}

	return nil, fmt.Errorf("server %q not found in config", id)
}
