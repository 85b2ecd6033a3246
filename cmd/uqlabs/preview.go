package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/uqlabs/core"
)

func newPreviewCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "preview <file.qasm>",
		Short: "Draw an OpenQASM circuit and report local metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			resp, err := core.PreviewSource(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			render, err := newRenderer(cmd.OutOrStdout(), plain)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Preview(resp))
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "disable terminal styling")
	return cmd
}
