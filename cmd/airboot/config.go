package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turel-data/airboot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify airboot configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/airboot/config.yaml
Project-specific overrides can be placed in .airboot.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("orchestrator.bin: %s\n", cfg.Orchestrator.Bin)
	fmt.Printf("orchestrator.home_env_var: %s\n", cfg.Orchestrator.HomeEnvVar)
	fmt.Printf("provision.home_dir_name: %s\n", cfg.Provision.HomeDirName)
	fmt.Printf("provision.config_file_name: %s\n", cfg.Provision.ConfigFileName)
	fmt.Printf("provision.template_path: %s\n", cfg.Provision.TemplatePath)
	fmt.Printf("provision.manifest_path: %s\n", displayOrUnset(cfg.Provision.ManifestPath))
	fmt.Printf("provision.placeholder: %s\n", cfg.Provision.Placeholder)
	fmt.Printf("timeouts.command: %s\n", cfg.Timeouts.Command)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, ok := configKeyValue(cfg, key)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey updates a configuration value and saves it.
func setConfigKey(cfg *config.Config, key, value string) {
	switch key {
	case "orchestrator.bin":
		cfg.Orchestrator.Bin = value
	case "orchestrator.home_env_var":
		cfg.Orchestrator.HomeEnvVar = value
	case "provision.home_dir_name":
		cfg.Provision.HomeDirName = value
	case "provision.config_file_name":
		cfg.Provision.ConfigFileName = value
	case "provision.template_path":
		cfg.Provision.TemplatePath = value
	case "provision.manifest_path":
		cfg.Provision.ManifestPath = value
	case "provision.placeholder":
		cfg.Provision.Placeholder = value
	case "timeouts.command":
		d, err := time.ParseDuration(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid duration %q: %v\n", value, err)
			os.Exit(1)
		}
		cfg.Timeouts.Command = d
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

// configKeyValue returns the display value for a config key.
func configKeyValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "orchestrator.bin":
		return cfg.Orchestrator.Bin, true
	case "orchestrator.home_env_var":
		return cfg.Orchestrator.HomeEnvVar, true
	case "provision.home_dir_name":
		return cfg.Provision.HomeDirName, true
	case "provision.config_file_name":
		return cfg.Provision.ConfigFileName, true
	case "provision.template_path":
		return cfg.Provision.TemplatePath, true
	case "provision.manifest_path":
		return displayOrUnset(cfg.Provision.ManifestPath), true
	case "provision.placeholder":
		return cfg.Provision.Placeholder, true
	case "timeouts.command":
		return cfg.Timeouts.Command.String(), true
	}
	return "", false
}

func displayOrUnset(s string) string {
	if s == "" {
		return "(built-in)"
	}
	return s
}
