package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/auth"
	"github.com/mesh-intelligence/appendable/internal/httpapi"
	"github.com/mesh-intelligence/appendable/internal/sqlite"
)

// HTTP server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: "Serve the timeline over HTTP/JSON until interrupted. Credentials come from\n" +
			"APPENDABLE_CLIENT_ID, APPENDABLE_CLIENT_SECRET and APPENDABLE_SIGNING_SECRET.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.settings.ListenAddr = listen
			}
			authCfg, err := auth.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			signer, err := auth.NewSigner(authCfg, nil)
			if err != nil {
				return err
			}
			logger, err := a.logger(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				api := httpapi.NewServer(tl, auth.NewSessions(authCfg, signer),
					httpapi.WithLogger(logger),
					httpapi.WithHealthCheck(tl.Ping),
				)
				srv := &http.Server{
					Addr:              a.settings.ListenAddr,
					Handler:           api.Handler(),
					ReadHeaderTimeout: readHeaderTimeout,
					ReadTimeout:       readTimeout,
					WriteTimeout:      writeTimeout,
					IdleTimeout:       idleTimeout,
					ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
				}
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					return fmt.Errorf("listen on %s: %w", srv.Addr, err)
				}
				return serve(ctx, srv, ln, logger)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: listen_addr from config.yaml)")
	return cmd
}

// serve runs srv on ln until ctx ends, then shuts down within
// shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	logger.Info("listening", slog.String("addr", ln.Addr().String()))
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
