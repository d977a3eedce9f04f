package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/consortium-engine/api"
	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/logger"
	"github.com/warp/consortium-engine/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API over the result store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer st.Close()

		eng, err := engine.New(cfg.EngineParams(), log)
		if err != nil {
			return err
		}

		handler := api.NewHandler(eng, st, log)
		server := &http.Server{
			Addr:         cfg.Addr,
			Handler:      api.NewRouter(handler),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info(ctx, "server starting",
				logger.String("addr", cfg.Addr),
				logger.String("db", cfg.DBPath))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case sig := <-quit:
			log.Info(ctx, "shutting down", logger.String("signal", sig.String()))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		log.Info(ctx, "server stopped")
		return nil
	},
}
