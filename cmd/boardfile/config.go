package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds the CLI configuration.
type Config struct {
	WorkItemsDir string `json:"work_items_dir"` //nolint:tagliatelle // snake_case for config file
	ProjectName  string `json:"project_name"`   //nolint:tagliatelle
	StorePath    string `json:"store_path"`     //nolint:tagliatelle
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".boardfile.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errWorkItemsDirEmpty  = errors.New("work_items_dir cannot be empty")
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WorkItemsDir: "work-items",
		ProjectName:  "default",
		StorePath:    "boardfile.db",
	}
}

// getGlobalConfigPath returns the path to the global config file:
// $XDG_CONFIG_HOME/boardfile/config.json, falling back to
// ~/.config/boardfile/config.json. Empty if neither resolves.
func getGlobalConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "boardfile", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "boardfile", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence
// (highest wins): defaults, global user config, project config
// (.boardfile.json in workDir, or explicit configPath), CLI flags
// (applied by the caller).
func LoadConfig(workDir, configPath string) (Config, error) {
	cfg := DefaultConfig()

	globalCfg, globalErr := loadConfigFile(getGlobalConfigPath(), false)
	if globalErr != nil {
		return Config{}, globalErr
	}

	cfg = mergeConfig(cfg, globalCfg)

	var (
		projectFile string
		mustExist   bool
	)

	if configPath != "" {
		projectFile = configPath
		if !filepath.IsAbs(projectFile) {
			projectFile = filepath.Join(workDir, projectFile)
		}

		mustExist = true
	} else {
		projectFile = filepath.Join(workDir, ConfigFileName)
	}

	projectCfg, projectErr := loadConfigFile(projectFile, mustExist)
	if projectErr != nil {
		return Config{}, projectErr
	}

	cfg = mergeConfig(cfg, projectCfg)

	if cfg.WorkItemsDir == "" {
		return Config{}, errWorkItemsDirEmpty
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.WorkItemsDir != "" {
		base.WorkItemsDir = overlay.WorkItemsDir
	}

	if overlay.ProjectName != "" {
		base.ProjectName = overlay.ProjectName
	}

	if overlay.StorePath != "" {
		base.StorePath = overlay.StorePath
	}

	return base
}

// loadConfigFile loads one config file. Missing optional files return a
// zero config. Files are JSONC: comments and trailing commas allowed.
func loadConfigFile(path string, mustExist bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, readErr := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if readErr != nil {
		if mustExist {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, nil
	}

	standardized, huErr := hujson.Standardize(data)
	if huErr != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, huErr)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, unmarshalErr)
	}

	return cfg, nil
}
