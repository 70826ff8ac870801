// Package config exposes typed access to runtime settings.
//
// Settings come from environment variables and, optionally, a config file.
// Keys are dotted ("smtp.host") and map to upper snake case environment
// variables ("SMTP_HOST").
package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetMillisecond retrieves the value associated with key as milliseconds.
	GetMillisecond(key string) time.Duration

	// GetSecond retrieves the value associated with key as seconds.
	GetSecond(key string) time.Duration
}

// NumberConfig defines helpers for retrieving numeric configuration values.
// Values that cannot be converted yield the zero value.
type NumberConfig interface {
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
}

// Config defines a set of methods for retrieving configuration values of various types.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetArray retrieves the value associated with key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	GetArray(key string) []string

	// IsSet reports whether the key has been provided by any source (file,
	// environment or default). It lets callers tell "explicitly false" apart
	// from "not configured".
	IsSet(key string) bool
}
