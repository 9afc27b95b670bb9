package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "headguard",
	Short: "Real-time head collision monitor",
	Long: `HeadGuard watches a camera feed for head-to-head collisions between
two people, recovers each head's 3D pose, and records a pre-event video
clip whenever a sustained collision is confirmed. The sensor subcommand
bridges helmet accelerometer hardware into the same event stream.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sensorCmd)
}

// defaultDataDir is ~/.headguard, created on demand.
func defaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(homeDir, ".headguard")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
