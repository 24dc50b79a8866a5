package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Restore the stored session and run the local gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			unsubscribe := a.LogSessionEvents()
			defer unsubscribe()

			// A stale or rejected token leaves the gateway logged out; it is
			// not a reason to refuse to start.
			if err := a.Session.Initialize(ctx); err != nil {
				a.Log.Warn().Err(err).Msg("stored session could not be restored")
			}

			if addr == "" {
				addr = a.Config.ListenAddr
			}
			e := a.Router()
			e.Server.ReadHeaderTimeout = 10 * time.Second

			errCh := make(chan error, 1)
			go func() {
				a.Log.Info().Str("addr", addr).Msg("gateway listening")
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.Log.Info().Msg("shutting down gateway")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}
