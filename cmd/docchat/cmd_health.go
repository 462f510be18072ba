package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/docchat/internal/types"
)

func init() {
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the remote service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}

		status := coord.CheckHealth(cmd.Context())
		fmt.Printf("%s: %s\n", cfg.Server.BaseURL, status)
		if status != types.HealthHealthy {
			return fmt.Errorf("service unreachable")
		}
		return nil
	},
}
