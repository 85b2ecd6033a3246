package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/uqlabs/schema"
)

func newBackendsCmd() *cobra.Command {
	var cfgPath string
	var plain bool
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List hardware backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadRuntime(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			env.serviceCfg.PrewarmEnabled = false
			srv, stop, err := env.startLocal(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			resp, err := srv.Service().ListBackends(cmd.Context(), schema.ListBackendsRequest{})
			if err != nil {
				return err
			}
			render, err := newRenderer(cmd.OutOrStdout(), plain)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Backends(resp.Backends))
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable terminal styling")
	return cmd
}
