// Package config provides configuration for the playground service.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/caravanai/caravan/internal/domain"
)

// Config holds the service configuration. Provider API keys come from the
// process environment first and from the key file second; the key file is
// the only part that is written back at runtime.
type Config struct {
	// Server settings
	HTTPPort int

	// Storage
	DatabaseURL string
	HistoryDir  string
	KeyFile     string

	// Timeouts
	LLMTimeout time.Duration

	// Logging
	LogLevel string

	mu              sync.RWMutex
	defaultProvider domain.Provider
	apiKeys         map[domain.Provider]string
}

// Load loads configuration from environment variables and the key file.
func Load() *Config {
	cfg := &Config{
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		DatabaseURL: getEnv("DATABASE_URL", "file:caravan.db?cache=shared&mode=rwc"),
		HistoryDir:  getEnv("HISTORY_DIR", "."),
		KeyFile:     getEnv("KEY_FILE", ".env"),
		LLMTimeout:  time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		apiKeys:     make(map[domain.Provider]string),
	}
	cfg.reload()
	return cfg
}

// reload re-reads keys and the default provider. Process environment wins
// over key-file entries so deployments can override a stale file.
func (c *Config) reload() {
	fileVals, err := readKeyFile(c.KeyFile)
	if err != nil {
		fileVals = map[string]string{}
	}

	lookup := func(name string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		return fileVals[name]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range domain.Providers() {
		c.apiKeys[p] = lookup(p.EnvVar())
	}
	c.defaultProvider = ""
	if p, err := domain.ParseProvider(lookup(defaultProviderVar)); err == nil {
		c.defaultProvider = p
	}
}

// APIKey returns the configured key for a provider, or "".
func (c *Config) APIKey(p domain.Provider) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKeys[p]
}

// HasAPIKey reports whether a non-empty key is configured for p.
func (c *Config) HasAPIKey(p domain.Provider) bool {
	return c.APIKey(p) != ""
}

// DefaultProvider returns the configured default provider. Falls back to
// the first provider that has a key, then to OpenAI.
func (c *Config) DefaultProvider() domain.Provider {
	c.mu.RLock()
	if c.defaultProvider != "" {
		p := c.defaultProvider
		c.mu.RUnlock()
		return p
	}
	c.mu.RUnlock()

	for _, p := range domain.Providers() {
		if c.HasAPIKey(p) {
			return p
		}
	}
	return domain.ProviderOpenAI
}

// SaveAPIKey persists a provider key (and optionally the default-provider
// selection) to the key file and refreshes the in-memory view. An empty
// key removes the entry from the file.
func (c *Config) SaveAPIKey(p domain.Provider, key string, makeDefault bool) error {
	updates := map[string]string{p.EnvVar(): key}
	if makeDefault {
		updates[defaultProviderVar] = string(p)
	}
	if err := writeKeyFile(c.KeyFile, updates); err != nil {
		return err
	}
	c.reload()
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
