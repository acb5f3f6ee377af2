package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL       = "http://127.0.0.1:7334"
	DefaultDBFileName   = ".subkeep.db"
	DefaultLogLevel     = "info"
	DefaultGistAPIURL   = "https://api.github.com"
	DefaultBackupKey    = "Auto Generated Sub-Store Backup"
	DefaultDocumentName = "Sub-Store"
	DefaultSnapshotKeep = 10

	configFileName   = ".subkeep.toml"
	configDirEnvKey  = "SUBKEEP_CONFIG_DIR"
	apiURLEnvKey     = "SUBKEEP_API_URL"
	dbPathEnvKey     = "SUBKEEP_DB"
	logLevelEnvKey   = "SUBKEEP_LOG_LEVEL"
	gistAPIURLEnvKey = "SUBKEEP_GIST_API_URL"
)

// BackupConfig controls the remote backup document and local snapshots.
type BackupConfig struct {
	GistAPIURL   string `toml:"gist_api_url"`
	Key          string `toml:"key"`
	DocumentName string `toml:"document_name"`
	// Snapshots is how many pre-restore snapshots to keep; 0 disables them.
	Snapshots int `toml:"snapshots"`
}

// Config defines runtime configuration for subkeep.
type Config struct {
	APIURL       string       `toml:"api_url"`
	DBPath       string       `toml:"db_path"`
	LogLevel     string       `toml:"log_level"`
	APITokenHash string       `toml:"api_token_hash"`
	Backup       BackupConfig `toml:"backup"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Backup: BackupConfig{
			GistAPIURL:   DefaultGistAPIURL,
			Key:          DefaultBackupKey,
			DocumentName: DefaultDocumentName,
			Snapshots:    DefaultSnapshotKeep,
		},
	}
}

// SnapshotDir is where pre-restore snapshots live, next to the database.
func (c *Config) SnapshotDir() string {
	return filepath.Join(filepath.Dir(c.DBPath), ".subkeep", "snapshots")
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"api_token_hash",
	"backup.gist_api_url",
	"backup.key",
	"backup.document_name",
	"backup.snapshots",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "api_token_hash":
		return c.APITokenHash, nil
	case "backup.gist_api_url":
		return c.Backup.GistAPIURL, nil
	case "backup.key":
		return c.Backup.Key, nil
	case "backup.document_name":
		return c.Backup.DocumentName, nil
	case "backup.snapshots":
		return strconv.Itoa(c.Backup.Snapshots), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the config file.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if level := strings.TrimSpace(os.Getenv(logLevelEnvKey)); level != "" {
		cfg.LogLevel = level
	}
	if gistURL := strings.TrimSpace(os.Getenv(gistAPIURLEnvKey)); gistURL != "" {
		cfg.Backup.GistAPIURL = gistURL
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	defaults := Default()
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaults.LogLevel
	}
	if strings.TrimSpace(c.Backup.GistAPIURL) == "" {
		c.Backup.GistAPIURL = defaults.Backup.GistAPIURL
	}
	if strings.TrimSpace(c.Backup.Key) == "" {
		c.Backup.Key = defaults.Backup.Key
	}
	if strings.TrimSpace(c.Backup.DocumentName) == "" {
		c.Backup.DocumentName = defaults.Backup.DocumentName
	}
	if c.Backup.Snapshots < 0 {
		c.Backup.Snapshots = 0
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "backup.snapshots":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return int64(parsed), nil
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			return strings.ToLower(value), nil
		default:
			return nil, fmt.Errorf("%s must be one of debug, info, warn, error", key)
		}
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
