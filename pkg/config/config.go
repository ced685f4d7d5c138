// Package config loads, validates and persists the repository configuration.
// Everything below the base directory is derived from it: the packages tree,
// the incoming and rejected drop directories of every index and the lock file
// shared by the CLI and the watcher.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/index"
)

// Config represents the application configuration.
type Config struct {
	// BaseDirectory is the served root. It holds packages/, incoming/ and rejected/.
	BaseDirectory string `yaml:"base_directory"`
	// HomeDirectory holds the signing key material and tool state.
	HomeDirectory string `yaml:"home_directory"`
	// Indexes are the channels artifacts can be uploaded to.
	Indexes []string `yaml:"indexes"`

	Settings Settings `yaml:"settings"`
}

// KeySettings describe the signing key generated on first setup.
type KeySettings struct {
	Name      string `yaml:"name"`
	Comment   string `yaml:"comment"`
	Email     string `yaml:"email"`
	Algorithm string `yaml:"algorithm"` // rsa, ed25519
	Bits      int    `yaml:"bits"`
}

// Settings represents general application settings.
type Settings struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Published metadata
	BaseURL string `yaml:"base_url"`
	Origin  string `yaml:"origin"`
	Label   string `yaml:"label"`

	// External tools
	ToolTimeout     time.Duration `yaml:"tool_timeout"`
	RPMSignTimeout  time.Duration `yaml:"rpm_sign_timeout"`
	ToolConcurrency int           `yaml:"tool_concurrency"`
	SignConcurrency int           `yaml:"sign_concurrency"`
	FixEntropy      bool          `yaml:"fix_entropy"`

	Key KeySettings `yaml:"key"`

	HooksDirectory string        `yaml:"hooks_directory,omitempty"`
	MetricsAddress string        `yaml:"metrics_address,omitempty"`
	WatchDebounce  time.Duration `yaml:"watch_debounce"`
}

// Default configuration values.
const (
	DefaultIndex           = "main-stable"
	DefaultLogLevel        = "info"
	DefaultBaseURL         = "http://localhost"
	DefaultOrigin          = "apprepo"
	DefaultToolTimeout     = 10 * time.Minute
	DefaultRPMSignTimeout  = 120 * time.Second
	DefaultSignConcurrency = 4
	DefaultKeyAlgorithm    = "rsa"
	DefaultKeyBits         = 2048
	DefaultWatchDebounce   = 2 * time.Second

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	// FileName is the name of the configuration file inside the config directory.
	FileName = "config.yaml"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	baseDir, err := fsutil.GetDataDir()
	if err != nil {
		baseDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		BaseDirectory: baseDir,
		HomeDirectory: filepath.Join(baseDir, "home"),
		Indexes:       []string{DefaultIndex},
		Settings: Settings{
			LogLevel:        DefaultLogLevel,
			BaseURL:         DefaultBaseURL,
			Origin:          DefaultOrigin,
			Label:           DefaultOrigin,
			ToolTimeout:     DefaultToolTimeout,
			RPMSignTimeout:  DefaultRPMSignTimeout,
			ToolConcurrency: runtime.NumCPU(),
			SignConcurrency: DefaultSignConcurrency,
			Key: KeySettings{
				Name:      "Package Repository",
				Comment:   "repository signing key",
				Email:     "packages@localhost",
				Algorithm: DefaultKeyAlgorithm,
				Bits:      DefaultKeyBits,
			},
			WatchDebounce: DefaultWatchDebounce,
		},
	}
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	dir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, FileName), nil
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s", errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}
	return &config, nil
}

// SaveConfig atomically writes the configuration to path.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return fmt.Errorf("%w: %s", errutils.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("%w: %s", errutils.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("%w: %s", errutils.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("%w: %s", errutils.ErrConfigMarshal, err.Error())
	}
	return buf.Bytes(), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if strings.TrimSpace(c.BaseDirectory) == "" {
		return errutils.ErrBaseDirectoryEmpty
	}
	if err := validateIndexes(c.Indexes); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateIndexes(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := index.ValidateName(name); err != nil {
			return err
		}
		if seen[name] {
			return errutils.ErrIndexExistsWithName(name)
		}
		seen[name] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	if !slices.Contains(validLogLevels, strings.ToLower(s.LogLevel)) {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	switch strings.ToLower(s.Key.Algorithm) {
	case "rsa", "ed25519":
	default:
		return errutils.ErrInvalidKeyAlgorithmWithDetails(s.Key.Algorithm)
	}
	if s.ToolConcurrency < 1 || s.SignConcurrency < 1 {
		return errutils.ErrConcurrencyInvalid
	}
	if s.ToolTimeout < 0 || s.RPMSignTimeout < 0 || s.WatchDebounce < 0 {
		return errutils.ErrTimeoutNegative
	}
	return nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.BaseDirectory == "" {
		c.BaseDirectory = defaults.BaseDirectory
	}
	if c.HomeDirectory == "" {
		c.HomeDirectory = filepath.Join(c.BaseDirectory, "home")
	}
	if c.Indexes == nil {
		c.Indexes = defaults.Indexes
	}

	s, d := &c.Settings, defaults.Settings
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if s.BaseURL == "" {
		s.BaseURL = d.BaseURL
	}
	if s.Origin == "" {
		s.Origin = d.Origin
	}
	if s.Label == "" {
		s.Label = s.Origin
	}
	if s.ToolTimeout == 0 {
		s.ToolTimeout = d.ToolTimeout
	}
	if s.RPMSignTimeout == 0 {
		s.RPMSignTimeout = d.RPMSignTimeout
	}
	if s.ToolConcurrency == 0 {
		s.ToolConcurrency = d.ToolConcurrency
	}
	if s.SignConcurrency == 0 {
		s.SignConcurrency = d.SignConcurrency
	}
	if s.Key.Name == "" {
		s.Key.Name = d.Key.Name
	}
	if s.Key.Comment == "" {
		s.Key.Comment = d.Key.Comment
	}
	if s.Key.Email == "" {
		s.Key.Email = d.Key.Email
	}
	if s.Key.Algorithm == "" {
		s.Key.Algorithm = d.Key.Algorithm
	}
	if s.Key.Bits == 0 {
		s.Key.Bits = d.Key.Bits
	}
	if s.WatchDebounce == 0 {
		s.WatchDebounce = d.WatchDebounce
	}
}

// PackagesDir is the root of every index tree.
func (c *Config) PackagesDir() string {
	return filepath.Join(c.BaseDirectory, "packages")
}

// IncomingRoot holds one upload directory per index.
func (c *Config) IncomingRoot() string {
	return filepath.Join(c.BaseDirectory, "incoming")
}

// RejectedRoot holds one directory of failed uploads per index.
func (c *Config) RejectedRoot() string {
	return filepath.Join(c.BaseDirectory, "rejected")
}

// IncomingDir is the upload directory of index.
func (c *Config) IncomingDir(indexName string) string {
	return filepath.Join(c.IncomingRoot(), indexName)
}

// RejectedDir is the rejected directory of index.
func (c *Config) RejectedDir(indexName string) string {
	return filepath.Join(c.RejectedRoot(), indexName)
}

// LockPath is the lock file serializing every tree mutation.
func (c *Config) LockPath() string {
	return filepath.Join(c.BaseDirectory, ".apprepo.lock")
}

// HooksDir is where pre-ingest.tengo and post-ingest.tengo are looked up.
func (c *Config) HooksDir() string {
	if c.Settings.HooksDirectory != "" {
		return c.Settings.HooksDirectory
	}
	return filepath.Join(c.HomeDirectory, "hooks")
}

// AddIndex appends a new index name.
func (c *Config) AddIndex(name string) error {
	if err := index.ValidateName(name); err != nil {
		return err
	}
	if slices.Contains(c.Indexes, name) {
		return errutils.ErrIndexExistsWithName(name)
	}
	c.Indexes = append(c.Indexes, name)
	return nil
}

// RemoveIndex drops an index name. It reports whether the name was present.
func (c *Config) RemoveIndex(name string) bool {
	i := slices.Index(c.Indexes, name)
	if i < 0 {
		return false
	}
	c.Indexes = slices.Delete(c.Indexes, i, i+1)
	return true
}
