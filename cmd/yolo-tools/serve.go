package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/yolo-tools/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset tools over MCP on stdin/stdout",
		Long: `Serve the dataset tools as an MCP (Model Context Protocol) server speaking
JSON-RPC 2.0 on stdin/stdout. Configure it in your MCP client.

The latex_table tool is offered only when a model is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []server.Option{server.WithVersion(Version)}

			if model != "" || a.cfg.Detector.Model != "" {
				client, err := a.client(model)
				if err != nil {
					return err
				}
				if err := client.CheckHealth(cmd.Context()); err != nil {
					a.logger.Warn("model server not reachable", zap.String("url", a.cfg.Detector.URL), zap.Error(err))
				}
				opts = append(opts, server.WithValidator(client))
			}

			a.logger.Debug("starting server",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("commit", GitCommit))

			return server.New(a.logger, opts...).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model weights for latex_table (default from config)")
	return cmd
}
