package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/drift/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "load and validate the configuration file without starting the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("configuration invalid", err)
		}
		if _, err := cfg.Changepoint(); err != nil {
			exitWithError("configuration invalid", err)
		}
		if _, err := cfg.Grouping(); err != nil {
			exitWithError("configuration invalid", err)
		}
		fmt.Println("configuration OK:", configFile)
		return nil
	},
}
