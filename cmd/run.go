package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/drift/internal/app"
	"firestige.xyz/drift/internal/config"
)

var inputPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the detector pipeline until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("loading configuration", err)
		}

		a, err := app.New(cfg, inputPath)
		if err != nil {
			exitWithError("initializing pipeline", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Run(ctx)
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "",
		"path to a newline-delimited line-protocol measurement file")
	_ = runCmd.MarkFlagRequired("input")
}
