package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/course-engine/internal/server"
	"github.com/pdiddy/course-engine/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the outline API over HTTP",
	Long: `Serve starts the HTTP API. Educators create a session, optionally upload a
syllabus PDF, and generate or regenerate outlines for it. Sessions live in
memory and expire after session.ttl of inactivity.

Endpoints:
  GET    /healthz
  POST   /api/v1/outlines
  POST   /api/v1/sessions
  GET    /api/v1/sessions/:id
  DELETE /api/v1/sessions/:id
  PUT    /api/v1/sessions/:id/pdf
  POST   /api/v1/sessions/:id/outline
  GET    /api/v1/sessions/:id/outline
  GET    /api/v1/sessions/:id/outline.md`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	p, err := buildPipeline(ctx, cfg, channelSwitches{}, logger)
	if err != nil {
		return err
	}
	defer p.close()

	sessions := session.NewManager(cfg.Session)
	srv := server.New(cfg.Server, p.orchestrator, sessions, p.log)
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
