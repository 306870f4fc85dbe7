package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/drift/internal/config"
)

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "fetch a snapshot of the running pipeline's metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := statsAddr
		if addr == "" {
			cfg, err := config.Load(configFile)
			if err != nil {
				exitWithError("loading configuration", err)
			}
			addr = cfg.Metrics.ListenAddr
		}

		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get("http://" + strings.TrimPrefix(addr, "http://") + "/metrics")
		if err != nil {
			exitWithError("fetching metrics", err)
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "#") {
				continue
			}
			if strings.HasPrefix(line, "drift_") {
				fmt.Println(line)
			}
		}
		return scanner.Err()
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsAddr, "addr", "a", "",
		"metrics server address (defaults to the configured metrics.listenAddr)")
}
