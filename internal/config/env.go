// Package config provides centralized configuration management.
// All settings come from the environment, optionally seeded from ~/.agentchat/.env.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Env holds all agentchat environment variables.
type Env struct {
	// APIURL is the backend base URL, without the /api suffix (AGENTCHAT_API_URL)
	APIURL string

	// Timeout bounds every backend request (AGENTCHAT_TIMEOUT)
	Timeout time.Duration

	// LogLevel is a zerolog level name (AGENTCHAT_LOG_LEVEL)
	LogLevel string

	// DevAddr is the listen address of the development backend (AGENTCHAT_DEV_ADDR)
	DevAddr string
}

const (
	DefaultAPIURL  = "http://localhost:8000"
	DefaultTimeout = 60 * time.Second
)

var (
	env     *Env
	envOnce sync.Once
)

// Load returns the singleton environment configuration.
// The .env file under the agentchat home is loaded first; it never overrides
// variables that are already set.
func Load() *Env {
	envOnce.Do(func() {
		_ = godotenv.Load(GetPaths().EnvFile)

		env = &Env{
			APIURL:   strings.TrimRight(getEnvDefault("AGENTCHAT_API_URL", DefaultAPIURL), "/"),
			Timeout:  getEnvDuration("AGENTCHAT_TIMEOUT", DefaultTimeout),
			LogLevel: getEnvDefault("AGENTCHAT_LOG_LEVEL", "info"),
			DevAddr:  getEnvDefault("AGENTCHAT_DEV_ADDR", ":8000"),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

// Validate checks that the configuration is usable.
func (e *Env) Validate() error {
	if e.APIURL == "" {
		return fmt.Errorf("AGENTCHAT_API_URL cannot be empty")
	}
	u, err := url.Parse(e.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("AGENTCHAT_API_URL must be an absolute URL, got %q", e.APIURL)
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("AGENTCHAT_TIMEOUT must be > 0")
	}
	return nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		return d
	}
	return fallback
}

// Paths holds standard agentchat directory paths.
type Paths struct {
	// Home is the agentchat home directory (~/.agentchat, or AGENTCHAT_HOME)
	Home string

	// Data is the data directory (~/.agentchat/data)
	Data string

	// CredentialsDB is the local credential store (~/.agentchat/data/credentials.db)
	CredentialsDB string

	// LogFile receives structured logs while the TUI owns the terminal
	LogFile string

	// EnvFile is the .env file path (~/.agentchat/.env)
	EnvFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home := os.Getenv("AGENTCHAT_HOME")
		if home == "" {
			userHome, err := os.UserHomeDir()
			if err != nil {
				userHome = "."
			}
			home = filepath.Join(userHome, ".agentchat")
		}
		data := filepath.Join(home, "data")

		paths = &Paths{
			Home:          home,
			Data:          data,
			CredentialsDB: filepath.Join(data, "credentials.db"),
			LogFile:       filepath.Join(data, "agentchat.log"),
			EnvFile:       filepath.Join(home, ".env"),
		}
	})
	return paths
}

// ResetPaths resets the cached paths (for testing).
func ResetPaths() {
	pathsOnce = sync.Once{}
	paths = nil
}

// Path returns a path under the agentchat home directory.
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
