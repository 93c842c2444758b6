package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question API over HTTP",
		Long: `Start an HTTP server exposing chat sessions as a JSON API.

Each browser or client gets its own session, identified by a signed cookie,
with its own dataset and history. Idle sessions expire after the session TTL.

Endpoints:
  GET    /healthz
  POST   /api/dataset          upload a file (multipart field "file")
  GET    /api/dataset          schema and preview of the loaded dataset
  POST   /api/ask              {"question": "..."}
  GET    /api/history          answered questions
  GET    /api/history/export   ?format=md|json|jsonl|yaml
  DELETE /api/session          end the session`,
		Example: `  # Serve on the default address
  leapask serve

  # Custom address and a browser front end on another origin
  leapask serve --addr 127.0.0.1:9000 --origin http://localhost:5173`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("addr", "", "Address to listen on (default: :8765)")
	cmd.Flags().Int("max-upload", 0, "Maximum upload size in MB (default: 32)")
	cmd.Flags().Duration("session-ttl", 0, "Idle time before a session expires (default: 30m)")
	cmd.Flags().StringSlice("origin", nil, "Allowed CORS origin (repeatable)")
	cmd.Flags().Bool("secure-cookies", false, "Mark the session cookie Secure (serve behind HTTPS)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := cmdCtx.ChatModel(ctx)
	if err != nil {
		return err
	}

	srv := server.NewServer(server.Config{
		Addr:           cfg.Server.Addr,
		SessionSecret:  cfg.Server.SessionSecret,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		SessionTTL:     cfg.Server.SessionTTL,
		RequestTimeout: cfg.Server.RequestTimeout,
		SecureCookies:  cfg.Server.SecureCookies,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PreviewRows:    cfg.Chat.PreviewRows,
		NewSession: func() (*chat.Session, error) {
			return cmdCtx.NewSession(context.Background(), m)
		},
		Logger: cmdCtx.Logger,
	})

	addr := cfg.Server.Addr
	if addr == "" {
		addr = server.DefaultAddr
	}
	cmdCtx.Renderer.Success(fmt.Sprintf("Serving on http://%s", displayAddr(addr)))
	cmdCtx.Renderer.Muted("Press Ctrl+C to stop")

	return srv.Serve(ctx)
}

// displayAddr turns a listen address into one a browser can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
