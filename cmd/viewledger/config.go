package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"viewledger/pkg/auth"
	"viewledger/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage configuration",
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the config file,
environment variables, and flags. The API token is masked.`,
	Run: runConfigShow,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Run:   runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	// Assemble without validating so a partially configured setup can
	// still be inspected.
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load environment:", err)
		os.Exit(1)
	}
	cfg.MergeCommandLineFlags(flags)

	shown := *cfg
	if shown.API.Token != "" {
		shown.API.Token = auth.MaskToken(shown.API.Token)
	}

	out, err := yaml.Marshal(&shown)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to render configuration:", err)
		os.Exit(1)
	}
	fmt.Print(string(out))
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to find home directory:", err)
			os.Exit(1)
		}
		path = home + "/.viewledger.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Config file already exists: %s\n", path)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to write config file:", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", path)
}
