package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/servnest/servnest/internal/health"
	"github.com/servnest/servnest/internal/logger"
)

// Defaults for the launcher. The URL and probe timings match the local
// development server the launcher was built around.
const (
	DefaultURL       = "http://127.0.0.1:5000"
	DefaultDrainTick = 80 * time.Millisecond
	DefaultName      = "server"
)

// Config is the top-level TOML structure.
//
//	name = "ai-build"
//	command = "python"
//	args = ["ai_build.py", "gui"]
//	workdir = "."
//	url = "http://127.0.0.1:5000"
//	open_browser = true
//
//	[probe]
//	interval = "500ms"
//	timeout = "1s"
//	deadline = "30s"
//
//	[log]
//	dir = "logs"
//
//	[history]
//	dsn = "sqlite://servnest-history.db"
//
//	[api]
//	listen = "127.0.0.1:7070"
//
//	[metrics]
//	listen = "127.0.0.1:7071"
type Config struct {
	Name        string        `mapstructure:"name"`
	Command     string        `mapstructure:"command"`
	Candidates  []string      `mapstructure:"command_candidates"` // tried in order before Command
	Args        []string      `mapstructure:"args"`
	WorkDir     string        `mapstructure:"workdir"`
	Env         []string      `mapstructure:"env"`
	URL         string        `mapstructure:"url"`
	OpenBrowser bool          `mapstructure:"open_browser"`
	DrainTick   time.Duration `mapstructure:"drain_tick"`
	QueueCap    int           `mapstructure:"queue_cap"`
	Probe       ProbeConfig   `mapstructure:"probe"`
	Log         logger.Config `mapstructure:"log"`
	History     HistoryConfig `mapstructure:"history"`
	API         APIConfig     `mapstructure:"api"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

type ProbeConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Deadline time.Duration `mapstructure:"deadline"`
}

type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen"` // empty disables the control API
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // empty disables the metrics endpoint
}

// Load reads a TOML config file. A missing file is an error; callers that
// want pure defaults should use Default().
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// Default returns a config with every default applied and no command set.
func Default() *Config {
	c := &Config{OpenBrowser: true}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.DrainTick <= 0 {
		c.DrainTick = DefaultDrainTick
	}
	if c.Probe.Interval <= 0 {
		c.Probe.Interval = health.DefaultInterval
	}
	if c.Probe.Timeout <= 0 {
		c.Probe.Timeout = health.DefaultTimeout
	}
	if c.Probe.Deadline <= 0 {
		c.Probe.Deadline = health.DefaultDeadline
	}
}

// ProbeFor converts the probe section to a health.Config bound to url.
func (c *Config) ProbeFor(url string) health.Config {
	return health.Config{
		URL:      url,
		Interval: c.Probe.Interval,
		Timeout:  c.Probe.Timeout,
		Deadline: c.Probe.Deadline,
	}
}

// ResolveCommand picks the executable to spawn: the first candidate that
// exists on disk wins, then Command as given (relative names are looked up
// on PATH). This mirrors launchers that prefer a project-local interpreter
// (a venv) and fall back to the system one.
func (c *Config) ResolveCommand() (string, error) {
	for _, cand := range c.Candidates {
		if cand == "" {
			continue
		}
		if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
			return cand, nil
		}
	}
	if c.Command == "" {
		return "", fmt.Errorf("no command configured")
	}
	if filepath.IsAbs(c.Command) || filepath.Base(c.Command) != c.Command {
		if fi, err := os.Stat(c.Command); err != nil || fi.IsDir() {
			return "", fmt.Errorf("command not found: %s", c.Command)
		}
		return c.Command, nil
	}
	path, err := exec.LookPath(c.Command)
	if err != nil {
		return "", fmt.Errorf("command not found on PATH: %s", c.Command)
	}
	return path, nil
}
