package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-heartcheck/internal/config"
)

var forceConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the heartcheck config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	RunE:  runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	_, path, err := loadConfig()
	if err != nil && !forceConfig {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil && !forceConfig {
		return fmt.Errorf("config already exists at %s; use --force to overwrite", path)
	}

	if err := config.WriteConfig(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func init() {
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}
