// Package config loads server settings from defaults, an optional YAML file
// and EMSERVER_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds server settings. The listen port is not part of it; it always
// comes from the command line.
type Config struct {
	// Host is the bind address; empty listens on all interfaces.
	Host string `yaml:"host" env:"EMSERVER_HOST"`

	// LogFile is truncated and written for the life of the process.
	LogFile string `yaml:"log_file" env:"EMSERVER_LOG_FILE"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" env:"EMSERVER_LOG_LEVEL"`

	// AdminListen enables the HTTP admin surface when non-empty (e.g. "127.0.0.1:9090").
	AdminListen string `yaml:"admin_listen" env:"EMSERVER_ADMIN_LISTEN"`

	// ExitCommand is the console line that triggers shutdown.
	ExitCommand string `yaml:"exit_command" env:"EMSERVER_EXIT_COMMAND"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogFile:     "emServer.log",
		LogLevel:    "info",
		ExitCommand: "EXIT",
	}
}

// Normalize fills zero values left by a partial file.
func (c *Config) Normalize() {
	def := Default()
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.ExitCommand == "" {
		c.ExitCommand = def.ExitCommand
	}
}

// Load builds a Config. An empty path skips the file; a missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// ErrInvalidPort is returned by ParsePort.
var ErrInvalidPort = errors.New("invalid port")

// ParsePort validates a TCP port argument.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	return port, nil
}

// ListenAddr joins the configured host with port.
func (c *Config) ListenAddr(port int) string {
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
