package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"halo-cli/internal/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var datastarURL string
	var chartSize int

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the self-assessment as a browser UI",
		Long: strings.TrimSpace(`
Serve the self-assessment from a local HTTP server.

The page is server-rendered HTML and works with plain form posts. When the
Datastar client loads, edits are sent as you type and every open tab is
kept in sync over server-sent events.
`),
		Example: strings.TrimSpace(`
# Serve on localhost
halo web --addr 127.0.0.1:3336

# Ten functions, archive every exported snapshot
halo --variant ten --archive ~/.halo/snapshots.sqlite web --open=false
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}
			defaults, err := loadDefaults(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			log, err := appLogger(app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			arch, err := openArchive(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}

			cfg := web.ServerConfig{
				Addr:        listenAddr,
				Defaults:    defaults,
				Logger:      log,
				ChartSize:   chartSize,
				DatastarURL: datastarURL,
			}
			if arch != nil {
				defer arch.Close()
				cfg.Archive = arch
			}
			srv, err := web.NewServer(cfg)
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
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"functions": len(defaults),
					"archive":   strings.TrimSpace(app.ArchivePath),
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "Divine H.A.L.O. web running at %s\n", url)
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}
			log.Info("web listening", zap.String("addr", actualAddr))

			hs := &http.Server{Handler: srv.Handler(), BaseContext: func(net.Listener) context.Context { return ctx }}
			go func() {
				<-ctx.Done()
				_ = hs.Close()
			}()
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3336", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&open, "open", true, "Open the UI in your default browser")
	cmd.Flags().StringVar(&datastarURL, "datastar-url", envOr("HALO_DATASTAR_URL", web.DefaultDatastarURL), "Datastar client bundle URL (empty disables live updates)")
	cmd.Flags().IntVar(&chartSize, "chart-size", 460, "Radar chart size in pixels")
	return cmd
}
