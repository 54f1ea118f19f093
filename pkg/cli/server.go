package cli

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/config"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/metrics"
	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20

	portFlagName      = "port"
	noBrowserFlagName = "no-browser"
	portEnvVar        = "CHURNCTL_PORT"
)

//go:embed assets/* templates/*
var embedFS embed.FS

func newServerCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "serve",
		Aliases: []string{"s", "server"},
		Usage:   "Start the local dashboard",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:    portFlagName,
				Usage:   "Port on which the server will listen",
				Value:   config.PortDefault,
				Sources: urfave.EnvVars(portEnvVar),
			},
			&urfave.BoolFlag{
				Name:    noBrowserFlagName,
				Aliases: []string{"nb"},
				Usage:   "Do not open browser automatically",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	applyFlags(cmd)
	cfg := getConfig(cmd)

	port := cfg.Config.Port
	if cmd.IsSet(portFlagName) {
		port = cmd.Int(portFlagName)
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)

	d := newDashboard(cfg, metrics.New())
	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(d),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url)

	if cfg.Config.OpenBrowser && !cmd.Bool(noBrowserFlagName) {
		openBrowser(url)
	}

	return g.Wait()
}

// dashboard holds what the view handlers share for the process lifetime.
type dashboard struct {
	tmpl    *template.Template
	cfg     *appConfig
	metrics *metrics.Metrics
}

func newDashboard(cfg *appConfig, m *metrics.Metrics) *dashboard {
	cfg.loadModel()
	m.SetModelLoaded(cfg.loadErr == nil)
	return &dashboard{
		tmpl:    template.Must(template.New("").ParseFS(embedFS, "templates/*.html")),
		cfg:     cfg,
		metrics: m,
	}
}

func makeRouter(d *dashboard) *http.ServeMux {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(embedFS)))
	mux.HandleFunc("GET /favicon.ico", faviconHandler)

	// Views
	mux.HandleFunc("GET /{$}", d.homeViewHandler)
	mux.HandleFunc("POST /{$}", d.calculateHandler)

	mux.Handle("GET /metrics", d.metrics.Handler())

	return mux
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
