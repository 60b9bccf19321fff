package fansiconfig

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnforcedKeyword is a (key, value) pair a dialect forces onto every
// connection string it builds, applied in ascending Priority order so a
// higher-priority entry can override a lower one set earlier.
type EnforcedKeyword struct {
	Key      string `toml:"key"`
	Value    string `toml:"value"`
	Priority int    `toml:"priority"`
}

// fileConfig is the on-disk shape loaded by LoadFile.
type fileConfig struct {
	CreateDatabaseTimeoutSeconds int                          `toml:"create_database_timeout_seconds"`
	EnforcedKeywords             map[string][]EnforcedKeyword `toml:"enforced_keywords"`
}

// Config is the process-wide mutable knob set: the create-database
// timeout and per-engine enforced connection-string keywords.
type Config struct {
	mu sync.RWMutex

	createDatabaseTimeout time.Duration
	enforcedKeywords      map[string][]EnforcedKeyword
}

// Default is the process-wide configuration instance. dbconn.NewServer
// attaches it to every Server it creates, and discovery falls back to it
// when a Server has no Config, so callers never have to thread a *Config
// through every call.
var Default = New()

// New returns a Config initialized to its documented defaults: a 30
// second create-database timeout and no enforced keywords.
func New() *Config {
	return &Config{
		createDatabaseTimeout: 30 * time.Second,
		enforcedKeywords:      make(map[string][]EnforcedKeyword),
	}
}

// CreateDatabaseTimeout returns the configured timeout for CREATE DATABASE
// commands.
func (c *Config) CreateDatabaseTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.createDatabaseTimeout
}

// SetCreateDatabaseTimeout overrides the default.
func (c *Config) SetCreateDatabaseTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createDatabaseTimeout = d
}

// EnforcedKeywords returns the enforced (key, value, priority) tuples for
// the given engine identifier, ascending by priority.
func (c *Config) EnforcedKeywords(engine string) []EnforcedKeyword {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]EnforcedKeyword, len(c.enforcedKeywords[engine]))
	copy(out, c.enforcedKeywords[engine])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// SetEnforcedKeywords replaces the enforced keyword set for an engine.
func (c *Config) SetEnforcedKeywords(engine string, kws []EnforcedKeyword) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enforcedKeywords == nil {
		c.enforcedKeywords = make(map[string][]EnforcedKeyword)
	}
	c.enforcedKeywords[engine] = kws
}

// LoadFile reads a TOML configuration file and merges it into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fansiconfig: reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("fansiconfig: parsing %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if fc.CreateDatabaseTimeoutSeconds > 0 {
		c.createDatabaseTimeout = time.Duration(fc.CreateDatabaseTimeoutSeconds) * time.Second
	}
	for engine, kws := range fc.EnforcedKeywords {
		if c.enforcedKeywords == nil {
			c.enforcedKeywords = make(map[string][]EnforcedKeyword)
		}
		c.enforcedKeywords[engine] = kws
	}
	return nil
}
