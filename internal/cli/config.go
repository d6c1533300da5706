package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"assessrag/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to assessrag.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigPath(GetRootDir())
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}
