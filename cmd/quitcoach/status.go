package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/quitcoach/api/client"
	"github.com/tbeaudouin05/quitcoach/api/gate"
)

var (
	statusAddr  string
	statusToken string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check a running server and evaluate the app gate for a token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		c, err := client.Dial(statusAddr)
		if err != nil {
			return err
		}
		defer c.Close()

		health, err := c.Health(ctx)
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "server: %s (%s)\n", health.Status, health.Timestamp.Format(time.RFC3339))
		if statusToken == "" {
			return nil
		}

		shell := gate.New(nil, nil)
		defer shell.Close()
		view, err := shell.Refresh(ctx, c.WithToken(statusToken))
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "localhost:50051", "gRPC address of the server")
	statusCmd.Flags().StringVar(&statusToken, "token", "", "session token to evaluate the gate for")
}
