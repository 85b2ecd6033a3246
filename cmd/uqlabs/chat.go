package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/uqlabs/schema"
)

func newChatCmd() *cobra.Command {
	var cfgPath string
	var model string
	var mode string
	var listModels bool
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the assistant a question",
		Long:  "Sends one message to a new chat and renders the reply. Reads the message from stdin when no argument is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := loadRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			env.serviceCfg.PrewarmEnabled = false
			srv, stop, err := env.startLocal(ctx)
			if err != nil {
				return err
			}
			defer stop()
			svc := srv.Service()
			render, err := newRenderer(cmd.OutOrStdout(), plain)
			if err != nil {
				return err
			}
			if listModels {
				models, err := svc.ListModels(ctx, schema.ListModelsRequest{})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Models(models))
				return err
			}

			message := strings.Join(args, " ")
			if strings.TrimSpace(message) == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				message = string(data)
			}
			created, err := svc.NewChat(ctx, schema.NewChatRequest{Mode: schema.ChatMode(mode), ModelID: schema.ModelID(model)})
			if err != nil {
				return err
			}
			resp, err := svc.SendMessage(ctx, schema.SendMessageRequest{ChatID: created.Chat.ID, Content: message})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), render.Title(resp.Chat.Title+" ("+string(resp.Chat.ModelID)+")"))
			_, err = fmt.Fprint(cmd.OutOrStdout(), render.Markdown(resp.Reply.Content))
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&model, "model", "", "model id (default from config)")
	cmd.Flags().StringVar(&mode, "mode", string(schema.ChatModeGeneral), "assistant mode (general|code|research)")
	cmd.Flags().BoolVar(&listModels, "list-models", false, "list selectable models and exit")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable terminal styling")
	return cmd
}
