package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/llmcan/internal"
	"github.com/joho/godotenv"
)

// LogLevelKey is the .env key holding the last selected log level.
const LogLevelKey = EnvPrefix + "_LOG_LEVEL"

// ApplyEnvFile reads the .env file at path and applies the values it knows
// about to cfg. A missing file is not an error.
func ApplyEnvFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	values, err := readEnvFile(path)
	if err != nil {
		return err
	}
	if lvl, ok := values[LogLevelKey]; ok && lvl != "" {
		if _, err := internal.ParseLogLevel(lvl); err != nil {
			internal.LogWarn("ignoring %s in %s: %v", LogLevelKey, path, err)
		} else {
			cfg.Log.Level = lvl
		}
	}
	return nil
}

// SaveLogLevel stores level in the .env file at path, keeping other keys.
func SaveLogLevel(path string, level internal.LogLevel) error {
	if path == "" {
		return nil
	}
	values, err := readEnvFile(path)
	if err != nil {
		return err
	}
	values[LogLevelKey] = level.String()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create env file directory: %w", err)
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to check if env file exists: %w", err)
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", path, err)
	}
	return values, nil
}
