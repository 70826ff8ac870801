package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrConfigTypeRequired is returned by NewViperFromBytes when no format is given.
var ErrConfigTypeRequired = errors.New("config type is required")

var _ Config = (*Viper)(nil)

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// newBase returns a viper instance that resolves keys from the environment.
//
// Nested keys map to upper snake case variables, so "smtp.host" is read from
// SMTP_HOST. Values set in the environment take precedence over file values.
func newBase() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyDefaults(v)

	return v
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.tz", "UTC")
	v.SetDefault("app.server.http.address", ":8080")
	v.SetDefault("app.server.http.read_timeout_seconds", 15)
	v.SetDefault("app.server.http.read_header_timeout_seconds", 5)
	v.SetDefault("app.server.http.write_timeout_seconds", 15)
	v.SetDefault("app.server.http.idle_timeout_seconds", 60)
	v.SetDefault("app.server.http.max_body_bytes", 1<<20)
	v.SetDefault("app.server.max_goroutine", 256)
	v.SetDefault("app.server.cors", "*")

	v.SetDefault("instrument.enabled", false)
	v.SetDefault("instrument.service_name", "mailer")
	v.SetDefault("instrument.metric_interval_seconds", 30)
	v.SetDefault("instrument.trace_sample_ratio", 1)
	v.SetDefault("instrument.log_level", "info")
	v.SetDefault("instrument.log_mask_fields", "password,pass,app_password,x-api-key,authorization,text,html")
}

// NewViperFromEnv returns a Viper-backed Config that only reads environment
// variables and built-in defaults.
func NewViperFromEnv() *Viper {
	return &Viper{v: newBase()}
}

// NewViper loads configuration from the given file path and returns a Viper-backed Config.
//
// The config file type is inferred by Viper from the filename extension. The
// file is watched and reloaded on change; environment variables still win.
func NewViper(pathFile string) (*Viper, error) {
	v := newBase()

	filename := path.Base(pathFile)
	filePath := path.Dir(pathFile)

	configName := path.Base(filename[:len(filename)-len(path.Ext(filename))])

	v.AddConfigPath(filePath)
	v.SetConfigName(configName)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "err", err)
			return
		}
		slog.Info("config success reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
// Environment lookups are disabled so the result only reflects data.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigTypeRequired
	}

	v := viper.New()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

// GetInt64 returns the value for key as int64.
func (vc *Viper) GetInt64(key string) int64 {
	return vc.v.GetInt64(key)
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

// GetMillisecond returns the value for key as milliseconds.
func (vc *Viper) GetMillisecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Millisecond
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetString returns the value for key as string, trimmed of surrounding spaces.
func (vc *Viper) GetString(key string) string {
	return strings.TrimSpace(vc.v.GetString(key))
}

// GetArray returns the value for key split by commas. Blank elements are dropped.
func (vc *Viper) GetArray(key string) []string {
	raw := vc.v.GetString(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// IsSet reports whether key has a value from any source.
func (vc *Viper) IsSet(key string) bool {
	return vc.v.IsSet(key)
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
