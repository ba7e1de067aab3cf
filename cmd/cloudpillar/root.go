package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudpillar/cloudpillar/config"
)

var (
	version    = "0.1.0"
	configPath string

	rootCmd = &cobra.Command{
		Use:   "cloudpillar",
		Short: "AWS account scanner with Well-Architected recommendations",
		Long: `CloudPillar - AWS account scanner

CloudPillar inventories an AWS account across regions and services,
tracks scan progress while the work runs in the background, and asks
a Bedrock model for a Well-Architected review of what it found.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.SetVersionTemplate(`CloudPillar {{.Version}}
`)
}

// loadConfig reads the config file or falls back to defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Default(), nil
}
