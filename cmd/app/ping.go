package main

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Open one session, ping the database inside a transaction and exit",
	RunE: func(c *cobra.Command, _ []string) error {
		timeout, _ := c.Flags().GetDuration("timeout")
		app, _ := buildApp(c)
		manager := app.Manager()
		defer func() {
			if err := manager.Stop(); err != nil {
				log.Errorf("Error stopping persistence unit: %v", err)
			}
		}()

		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()

		if err := app.PingOnce(ctx); err != nil {
			return fmt.Errorf("persistence unit %s is unreachable: %w", manager.Unit().Name(), err)
		}

		fmt.Fprintf(c.OutOrStdout(), "persistence unit %s is reachable\n", manager.Unit().Name())
		return nil
	},
}

func init() {
	pingCmd.Flags().Duration("timeout", 5*time.Second, "Time allowed for the ping")
}
