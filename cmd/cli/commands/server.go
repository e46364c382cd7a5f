package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/api"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := app.Postgres()
			if err != nil {
				return err
			}

			applied, err := pg.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Println("\nDatabase is up to date")
				return nil
			}
			fmt.Printf("\n✓ Applied %d migrations\n", len(applied))
			for _, name := range applied {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println()
			return nil
		},
	}
}

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the roster API over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := app.Notifier()
			if err != nil {
				return err
			}

			serverCfg := app.Cfg.Server
			if addr != "" {
				serverCfg.Addr = addr
			}

			handler := &api.Handler{
				Store:    app.Database,
				Solver:   app.Solver,
				Notifier: notifier,
				Config:   app.Cfg,
				Logger:   app.Logger,
			}
			server := api.NewServer(api.NewRouter(handler, serverCfg, app.Logger), serverCfg)

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Serving API", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down API")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
