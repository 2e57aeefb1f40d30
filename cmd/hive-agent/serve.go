package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivegate/hive-agent/src/web"
)

func newServeCmd() *cobra.Command {
	var requireLogin bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.cleanup(context.Background())

			srv := &http.Server{
				Addr: a.cfg.Web.Addr,
				Handler: web.NewServer(web.Config{
					Agent:        a.agent,
					HiveBaseURL:  a.cfg.Hive.BaseURL,
					RequireLogin: requireLogin,
					Logger:       a.logger,
				}).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&requireLogin, "require-login", false, "require gateway login before chatting")
	return cmd
}
