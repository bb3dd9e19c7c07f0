// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete newsdesk configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Remote news backend
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Conversation behaviour
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Local conversation store
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Terminal rendering
	UI UIConfig `toml:"ui" json:"ui"`

	// Log destination
	Log LogConfig `toml:"log" json:"log"`

	// Development stub backend (newsdesk serve)
	Server ServerConfig `toml:"server" json:"server"`
}

// BackendConfig describes how to reach the news backend.
type BackendConfig struct {
	// BaseURL is the backend root; /chat, /assistant and /health hang off it.
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSeconds bounds a single request. 0 disables the timeout.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`

	// RequestsPerMinute throttles outgoing requests. 0 means unlimited.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// ChatConfig contains conversation settings.
type ChatConfig struct {
	// DefaultMode is "chat" or "assistant".
	DefaultMode string `toml:"default_mode" json:"default_mode"`

	// PersistAssistantReplies stores assistant replies next to user messages
	// so that they are replayed on the next start.
	PersistAssistantReplies bool `toml:"persist_assistant_replies" json:"persist_assistant_replies"`
}

// StorageConfig locates the local store.
type StorageConfig struct {
	DBPath string `toml:"db_path" json:"db_path"`
}

// UIConfig contains rendering preferences.
type UIConfig struct {
	// Hyperlinks renders result links as OSC 8 terminal hyperlinks.
	Hyperlinks bool `toml:"hyperlinks" json:"hyperlinks"`

	// Markdown renders assistant text with glamour in the line REPL.
	Markdown bool `toml:"markdown" json:"markdown"`

	// AltScreen runs the TUI in the alternate screen buffer.
	AltScreen bool `toml:"alt_screen" json:"alt_screen"`
}

// LogConfig selects the log file. Empty means ~/.newsdesk/newsdesk.log.
type LogConfig struct {
	File string `toml:"file" json:"file"`
}

// ServerConfig configures the development stub backend.
type ServerConfig struct {
	Host           string   `toml:"host" json:"host"`
	Port           int      `toml:"port" json:"port"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// CurrentVersion is written into new config files.
	CurrentVersion = "1"

	// DefaultBaseURL matches the port the original backend listens on.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeoutSeconds bounds a hung backend.
	DefaultTimeoutSeconds = 60

	// MaxTimeoutSeconds is the largest accepted request timeout.
	MaxTimeoutSeconds = 3600
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,

		Backend: BackendConfig{
			BaseURL:           DefaultBaseURL,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			RequestsPerMinute: 0,
		},

		Chat: ChatConfig{
			DefaultMode:             string(model.ModeChat),
			PersistAssistantReplies: false,
		},

		Storage: StorageConfig{
			DBPath: DefaultDBPath(),
		},

		UI: UIConfig{
			Hyperlinks: true,
			Markdown:   true,
			AltScreen:  true,
		},

		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the newsdesk configuration directory path.
// NEWSDESK_HOME overrides the default ~/.newsdesk.
func ConfigDir() (string, error) {
	if dir := os.Getenv("NEWSDESK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".newsdesk"), nil
}

// ConfigPath returns the path to the TOML config file.
// NEWSDESK_CONFIG overrides the default location.
func ConfigPath() (string, error) {
	if path := os.Getenv("NEWSDESK_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultDBPath returns the default store location, or a relative file when
// the home directory cannot be determined.
func DefaultDBPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "newsdesk.db"
	}
	return filepath.Join(dir, "newsdesk.db")
}

// DefaultLogPath returns the default log file location.
func DefaultLogPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "newsdesk.log"
	}
	return filepath.Join(dir, "newsdesk.log")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last.
// A decode error is returned together with a usable default config.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		return cfg, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		var verrs ValidateErrors
		if errors.As(err, &verrs) {
			return nil, err
		}
		fallback := Default()
		fallback.ApplyEnvOverrides()
		fallback.SetDefaults()
		return fallback, fmt.Errorf("failed to load TOML config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads, overrides, defaults and validates the file at path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path.
// RELIABILITY: Atomic write with fsync prevents a truncated config on crash.
func SaveTOML(cfg *Config, path string) error {
	return util.AtomicWrite(path, 0600, func(w io.Writer) error {
		fmt.Fprintln(w, "# newsdesk configuration file")
		fmt.Fprintln(w, "# Generated by newsdesk - edit with care")
		fmt.Fprintln(w, "")

		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns ValidateErrors when
// anything is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validateBaseURL(c.Backend.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "backend.base_url", Message: err.Error()})
	}
	if c.Backend.TimeoutSeconds < 0 || c.Backend.TimeoutSeconds > MaxTimeoutSeconds {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_seconds",
			Message: fmt.Sprintf("must be between 0 and %d, got %d", MaxTimeoutSeconds, c.Backend.TimeoutSeconds),
		})
	}
	if c.Backend.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.requests_per_minute",
			Message: fmt.Sprintf("must not be negative, got %d", c.Backend.RequestsPerMinute),
		})
	}

	if _, err := model.ParseMode(c.Chat.DefaultMode); err != nil {
		errs = append(errs, ValidationError{Field: "chat.default_mode", Message: err.Error()})
	}

	if strings.TrimSpace(c.Storage.DBPath) == "" {
		errs = append(errs, ValidationError{Field: "storage.db_path", Message: "must not be empty"})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// SetDefaults fills zero-value fields that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	c.Backend.BaseURL = strings.TrimSuffix(c.Backend.BaseURL, "/")
	if c.Chat.DefaultMode == "" {
		c.Chat.DefaultMode = defaults.Chat.DefaultMode
	}
	c.Chat.DefaultMode = strings.ToLower(strings.TrimSpace(c.Chat.DefaultMode))
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = defaults.Storage.DBPath
	}
	c.Storage.DBPath = ExpandPath(c.Storage.DBPath)
	c.Log.File = ExpandPath(c.Log.File)
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - API_ENDPOINT: backend.base_url (the variable the web client used)
//   - NEWSDESK_BASE_URL: backend.base_url, wins over API_ENDPOINT
//   - NEWSDESK_TIMEOUT: backend.timeout_seconds
//   - NEWSDESK_RPM: backend.requests_per_minute
//   - NEWSDESK_MODE: chat.default_mode
//   - NEWSDESK_PERSIST_REPLIES: chat.persist_assistant_replies
//   - NEWSDESK_DB: storage.db_path
//   - NEWSDESK_LOG_FILE: log.file
//   - NEWSDESK_PORT: server.port
//
// Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("API_ENDPOINT"); endpoint != "" {
		c.Backend.BaseURL = endpoint
	}
	if baseURL := os.Getenv("NEWSDESK_BASE_URL"); baseURL != "" {
		c.Backend.BaseURL = baseURL
	}

	if timeout := os.Getenv("NEWSDESK_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil {
			c.Backend.TimeoutSeconds = n
		}
	}
	if rpm := os.Getenv("NEWSDESK_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			c.Backend.RequestsPerMinute = n
		}
	}

	if mode := os.Getenv("NEWSDESK_MODE"); mode != "" {
		c.Chat.DefaultMode = mode
	}
	if persist := os.Getenv("NEWSDESK_PERSIST_REPLIES"); persist != "" {
		c.Chat.PersistAssistantReplies = parseBool(persist)
	}

	if db := os.Getenv("NEWSDESK_DB"); db != "" {
		c.Storage.DBPath = db
	}
	if logFile := os.Getenv("NEWSDESK_LOG_FILE"); logFile != "" {
		c.Log.File = logFile
	}

	if port := os.Getenv("NEWSDESK_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Timeout returns the backend request timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// Mode returns the default mode, falling back to chat.
func (c *Config) Mode() model.Mode {
	mode, err := model.ParseMode(c.Chat.DefaultMode)
	if err != nil {
		return model.ModeChat
	}
	return mode
}

// LogPath returns the configured log file or the default one.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return DefaultLogPath()
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.base_url",
		"backend.timeout_seconds",
		"backend.requests_per_minute",
		"chat.default_mode",
		"chat.persist_assistant_replies",
		"storage.db_path",
		"ui.hyperlinks",
		"ui.markdown",
		"ui.alt_screen",
		"log.file",
		"server.host",
		"server.port",
		"server.allowed_origins",
	}
}

// Get retrieves a value by its TOML key path (e.g. "backend.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value from its string form by TOML key path.
// The result is not validated; call Validate afterwards.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer value %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean value %q", key, value)
		}
		field.SetBool(b)
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Kind())
	}
	return nil
}

// lookup walks the struct by toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) == 0 || parts[0] == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]; tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.AllowedOrigins != nil {
		clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	}
	return &clone
}

// String returns an indented JSON rendering for debugging output.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
