package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/medicare-ai/medassist"
	"github.com/medicare-ai/medassist/api"
	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/metrics"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr  string
		stdio bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API and MCP tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := root.assistant(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warnf("close assistant: %v", err)
				}
				logger.Sync()
			}()

			mcpServer := medassist.NewMCPServer(a, "medassist")
			if stdio {
				return server.ServeStdio(mcpServer)
			}

			cfg := a.Config()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			metrics.Register()
			timeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
			h := api.NewHandler(a.Orchestrator, func() any { return a.Status() }, timeout, cfg.Document.MaxBytes)
			router := api.NewRouter(h, server.NewStreamableHTTPServer(mcpServer), cfg.Server.MCPPath, cfg.Server.AllowedOrigins)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Infof("medassist %s listening on %s (mcp at %s)", medassist.Version, cfg.Server.Addr, cfg.Server.MCPPath)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			logger.Infof("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve MCP over stdio instead of HTTP")
	return cmd
}
