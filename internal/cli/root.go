// Package cli defines the cobra commands of the heartcheck CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-heartcheck/internal/config"
)

var (
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "heartcheck",
	Short: "Spoken heart-health questionnaire",
	Long: `heartcheck asks a short heart-health questionnaire by voice, checks
every answer and collects the results into a numeric record.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when the file
// does not exist.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.DefaultConfig(), path, nil
	}
	cfg, err := config.ReadConfig(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the user config directory)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(configCmd)
}
