package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tiledash/internal/store"
	"tiledash/internal/urlutil"
	"tiledash/internal/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWebAddr = "127.0.0.1:3335"

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the dashboard in a browser",
		Long: strings.TrimSpace(`
Serve the dashboard from a local HTTP server.

The page is server-rendered; a small script calls the JSON API under /api and
reloads when /ws reports a change. Changes made by other processes (CLI, TUI)
are picked up from the board directory.
`),
		Example: strings.TrimSpace(`
# Serve the current board on localhost
tiledash web

# Serve a specific board on another port
tiledash --board work web --addr :8080
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if !cmd.Flags().Changed("addr") {
				if cfg, err := store.LoadConfig(); err == nil && cfg.Web != nil && strings.TrimSpace(cfg.Web.Addr) != "" {
					listenAddr = strings.TrimSpace(cfg.Web.Addr)
				}
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			log := app.logger()
			srv, err := web.NewServer(web.ServerConfig{Board: b, BoardName: app.Board, Log: log})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened := false
			openErr := ""
			if open {
				if err := urlutil.Open(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"board":     app.Board,
					"dir":       app.Dir,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "tiledash web running at %s\n", url)

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				if err := b.Watch(gctx, app.Dir); err != nil {
					log.Warn("board watcher stopped", zap.Error(err))
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				// Websocket streams are hijacked; close them so Shutdown does not wait on them.
				srv.Close()
				return hs.Shutdown(shutdownCtx)
			})
			if err := g.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultWebAddr, "Bind address (host:port or :port; default from config web.addr)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the page in your default browser")
	return cmd
}
