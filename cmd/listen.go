package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gesturehook/internal/dispatch"
	"gesturehook/internal/network"
)

func newListenCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Attach to a running service and print gesture events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			if addr == "" {
				addr = cfg.General.APIAddr
			}

			out := cmd.OutOrStdout()
			client := network.NewClient(addr, cfg.General.APIToken)
			client.OnCircle = func(p dispatch.Payload) {
				data, err := json.Marshal(p)
				if err != nil {
					return
				}
				fmt.Fprintln(out, string(data))
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "event server address (defaults to the configured api_addr)")
	return cmd
}
