package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1ilseok/briefit/internal/api"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/1ilseok/briefit/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const runTimeout = 20 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the weekly schedule and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateMail(); err != nil {
			return err
		}

		runner, store, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		s, err := scheduler.New(cfg.CronSpec, cfg.Location, runner, runTimeout)
		if err != nil {
			return err
		}
		s.Start()
		defer func() {
			<-s.Stop().Done()
		}()

		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery())
		if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
			r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
		}
		api.NewServer(runner, store).RegisterRoutes(r)

		srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", srv.Addr).Str("cron", cfg.CronSpec).Msg("starting api server...")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
