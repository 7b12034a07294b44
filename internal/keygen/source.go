// Package keygen supplies per-step key batches to the simulator, either
// generated from a statistical distribution or read from an external
// source. Each source type is a concrete strategy implementing BatchSource,
// self-registered under a SourceType.
package keygen

import (
	"context"
	"fmt"
	"sync"
)

// SourceType names a batch source implementation.
type SourceType string

const (
	TypeFile SourceType = "file"
	TypeHTTP SourceType = "http"
	TypeDB   SourceType = "db"
)

// BatchSource produces the sequence of per-step key batches fed to a
// simulation run.
type BatchSource interface {
	// Name identifies this source instance for logging.
	Name() string
	// Next returns the next step's batch. ok is false once the source is
	// exhausted.
	Next(ctx context.Context) (batch []string, ok bool, err error)
	// Close releases any resources the source holds.
	Close() error
}

// SourceConfig holds source-specific construction options.
type SourceConfig struct {
	Type    SourceType
	Name    string
	Options map[string]interface{}
}

// GetString retrieves a string option with a default value.
func (c *SourceConfig) GetString(key, defaultValue string) string {
	if c.Options == nil {
		return defaultValue
	}
	if v, ok := c.Options[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetInt retrieves an int option with a default value.
func (c *SourceConfig) GetInt(key string, defaultValue int) int {
	if c.Options == nil {
		return defaultValue
	}
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// SourceCreator builds a BatchSource from configuration.
type SourceCreator func(cfg *SourceConfig) (BatchSource, error)

var (
	registry   = make(map[SourceType]SourceCreator)
	registryMu sync.RWMutex
)

// Register registers a source creator under a type. Called from each
// source implementation's init().
func Register(t SourceType, creator SourceCreator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = creator
}

// Create builds a named batch source from configuration.
func Create(cfg *SourceConfig) (BatchSource, error) {
	registryMu.RLock()
	creator, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown batch source type: %s", cfg.Type)
	}
	return creator(cfg)
}
