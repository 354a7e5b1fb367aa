// Package config handles service configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "paperscope"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// DefaultDBFile is the sqlite database file name under the data dir.
	DefaultDBFile = "papers.db"
)

// Config is the full service configuration.
type Config struct {
	DataDir string `yaml:"data_dir,omitempty"`
	DBPath  string `yaml:"db_path,omitempty"`

	Ollama OllamaConfig `yaml:"ollama,omitempty"`
	Arxiv  ArxivConfig  `yaml:"arxiv,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
}

// OllamaConfig configures the embedding provider.
type OllamaConfig struct {
	URL        string `yaml:"url,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// ArxivConfig configures the ingestion job.
type ArxivConfig struct {
	// Query is the arxiv search query, e.g. "cat:cs.CV OR cat:cs.AI".
	Query string `yaml:"query,omitempty"`
	// MaxResults is the batch size per fetch.
	MaxResults int `yaml:"max_results,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
	// ReloadIntervalMinutes is the background cache reload period;
	// 0 disables the ticker.
	ReloadIntervalMinutes int `yaml:"reload_interval_minutes,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dataDir := "data"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "paperscope")
	}
	return &Config{
		DataDir: dataDir,
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			Model:      "all-minilm:l6-v2",
			Dimensions: 384,
		},
		Arxiv: ArxivConfig{
			Query:      "cat:cs.CV OR cat:cs.AI OR cat:cs.LG",
			MaxResults: 200,
		},
		Server: ServerConfig{
			Host:                  "127.0.0.1",
			Port:                  8000,
			ReloadIntervalMinutes: 60,
		},
	}
}

// Path returns the config file path. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/paperscope/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at path, falling back to defaults when
// the file does not exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, DefaultDBFile)
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("PAPERSCOPE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PAPERSCOPE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PAPERSCOPE_OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("PAPERSCOPE_OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("PAPERSCOPE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ReloadInterval returns the background reload period, or 0 when
// disabled.
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.Server.ReloadIntervalMinutes) * time.Minute
}

// EnsureDataDir creates the data directory if needed.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
