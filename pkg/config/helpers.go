package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/glorpus-work/apprepo/pkg/errutils"
)

// field binds a dotted configuration key to its accessors.
type field struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = v; return nil },
	}
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

func durationField(ptr func(c *Config) *time.Duration) field {
	return field{
		get: func(c *Config) string { return ptr(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", v)
			}
			*ptr(c) = d
			return nil
		},
	}
}

var fields = map[string]field{
	"base_directory":   stringField(func(c *Config) *string { return &c.BaseDirectory }),
	"home_directory":   stringField(func(c *Config) *string { return &c.HomeDirectory }),
	"log_level":        stringField(func(c *Config) *string { return &c.Settings.LogLevel }),
	"base_url":         stringField(func(c *Config) *string { return &c.Settings.BaseURL }),
	"origin":           stringField(func(c *Config) *string { return &c.Settings.Origin }),
	"label":            stringField(func(c *Config) *string { return &c.Settings.Label }),
	"tool_timeout":     durationField(func(c *Config) *time.Duration { return &c.Settings.ToolTimeout }),
	"rpm_sign_timeout": durationField(func(c *Config) *time.Duration { return &c.Settings.RPMSignTimeout }),
	"tool_concurrency": intField(func(c *Config) *int { return &c.Settings.ToolConcurrency }),
	"sign_concurrency": intField(func(c *Config) *int { return &c.Settings.SignConcurrency }),
	"fix_entropy": {
		get: func(c *Config) string { return strconv.FormatBool(c.Settings.FixEntropy) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %s", v)
			}
			c.Settings.FixEntropy = b
			return nil
		},
	},
	"key.name":        stringField(func(c *Config) *string { return &c.Settings.Key.Name }),
	"key.comment":     stringField(func(c *Config) *string { return &c.Settings.Key.Comment }),
	"key.email":       stringField(func(c *Config) *string { return &c.Settings.Key.Email }),
	"key.algorithm":   stringField(func(c *Config) *string { return &c.Settings.Key.Algorithm }),
	"key.bits":        intField(func(c *Config) *int { return &c.Settings.Key.Bits }),
	"hooks_directory": stringField(func(c *Config) *string { return &c.Settings.HooksDirectory }),
	"metrics_address": stringField(func(c *Config) *string { return &c.Settings.MetricsAddress }),
	"watch_debounce":  durationField(func(c *Config) *time.Duration { return &c.Settings.WatchDebounce }),
}

// SetValue sets a configuration value by key and validates the result. On a
// validation failure the previous value is restored.
func (c *Config) SetValue(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", errutils.ErrUnknownConfigKey, key)
	}
	previous := f.get(c)
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := c.Validate(); err != nil {
		_ = f.set(c, previous)
		return err
	}
	return nil
}

// GetValue returns the value of key as a string.
func (c *Config) GetValue(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", errutils.ErrUnknownConfigKey, key)
	}
	return f.get(c), nil
}

// ToMap returns every settable key with its current value.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(fields))
	for key, f := range fields {
		result[key] = f.get(c)
	}
	return result
}
