package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opencode-ai/webmodal/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, cfg)
		}

		if used := config.UsedFile(cfgFile); used != "" {
			fmt.Printf("# loaded from %s\n", used)
		} else {
			fmt.Println("# no config file found; showing defaults")
		}
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		used := config.UsedFile(cfgFile)
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]string{
				"file":        used,
				"default_dir": config.DefaultConfigDir(),
			})
		}
		if used == "" {
			fmt.Printf("no config file (create one with 'webmodal init' in %s)\n", config.DefaultConfigDir())
			return nil
		}
		fmt.Println(used)
		return nil
	},
}
