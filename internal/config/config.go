// Package config handles configuration loading and management for airboot.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for airboot.
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Provision    ProvisionConfig    `mapstructure:"provision"`
	Timeouts     TimeoutsConfig     `mapstructure:"timeouts"`
}

// OrchestratorConfig identifies the external orchestrator CLI.
type OrchestratorConfig struct {
	// Bin is the orchestrator binary invoked for metadata operations.
	Bin string `mapstructure:"bin"`
	// HomeEnvVar is the environment variable the orchestrator reads to
	// locate its home directory.
	HomeEnvVar string `mapstructure:"home_env_var"`
}

// ProvisionConfig holds the provisioning defaults.
type ProvisionConfig struct {
	// HomeDirName is the environment home directory name, created next
	// to the current working directory.
	HomeDirName string `mapstructure:"home_dir_name"`
	// ConfigFileName is the rendered config file's name inside the home.
	ConfigFileName string `mapstructure:"config_file_name"`
	// TemplatePath is the config template location.
	TemplatePath string `mapstructure:"template_path"`
	// ManifestPath is the provisioning manifest; empty uses the
	// built-in manifest.
	ManifestPath string `mapstructure:"manifest_path"`
	// Placeholder is the literal token replaced when rendering.
	Placeholder string `mapstructure:"placeholder"`
}

// TimeoutsConfig holds timeout settings for external commands.
type TimeoutsConfig struct {
	// Command bounds each orchestrator CLI invocation; zero disables
	// the bound and a hanging command hangs the run.
	Command time.Duration `mapstructure:"command"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (AIRBOOT_ORCHESTRATOR_BIN)
// 2. Project config (.airboot.yaml in current directory or parent)
// 3. User config (~/.config/airboot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("orchestrator.bin", "AIRBOOT_ORCHESTRATOR_BIN")
	v.BindEnv("provision.template_path", "AIRBOOT_TEMPLATE_PATH")
	v.BindEnv("provision.manifest_path", "AIRBOOT_MANIFEST_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("orchestrator.bin", cfg.Orchestrator.Bin)
	v.Set("orchestrator.home_env_var", cfg.Orchestrator.HomeEnvVar)
	v.Set("provision.home_dir_name", cfg.Provision.HomeDirName)
	v.Set("provision.config_file_name", cfg.Provision.ConfigFileName)
	v.Set("provision.template_path", cfg.Provision.TemplatePath)
	v.Set("provision.manifest_path", cfg.Provision.ManifestPath)
	v.Set("provision.placeholder", cfg.Provision.Placeholder)
	v.Set("timeouts.command", cfg.Timeouts.Command.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Orchestrator defaults match a stock Airflow install.
	v.SetDefault("orchestrator.bin", "airflow")
	v.SetDefault("orchestrator.home_env_var", "AIRFLOW_HOME")

	// Provisioning defaults
	v.SetDefault("provision.home_dir_name", "airflow")
	v.SetDefault("provision.config_file_name", "airflow.cfg")
	v.SetDefault("provision.template_path", "airflow.cfg.template")
	v.SetDefault("provision.manifest_path", "")
	v.SetDefault("provision.placeholder", "USER_DIR")

	// Timeout defaults: unbounded, matching the orchestrator CLI's own
	// behavior.
	v.SetDefault("timeouts.command", "0s")
}

// getUserConfigDir returns the XDG config directory for airboot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "airboot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "airboot")
	}
	return filepath.Join(home, ".config", "airboot")
}

// findProjectConfig searches for .airboot.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".airboot.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			Bin:        "airflow",
			HomeEnvVar: "AIRFLOW_HOME",
		},
		Provision: ProvisionConfig{
			HomeDirName:    "airflow",
			ConfigFileName: "airflow.cfg",
			TemplatePath:   "airflow.cfg.template",
			ManifestPath:   "",
			Placeholder:    "USER_DIR",
		},
		Timeouts: TimeoutsConfig{
			Command: 0,
		},
	}
}
