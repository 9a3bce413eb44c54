package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discojam/internal/cover"
	"github.com/desertthunder/discojam/internal/server"
	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
	"github.com/desertthunder/discojam/internal/web"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Serve wires the application together and runs the HTTP server until it is
// interrupted or fails.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" {
		if loaded, err := shared.LoadConfig(path); err == nil {
			loaded.ApplyEnv()
			r.config = loaded
		} else {
			r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}

	if err := r.config.Validate(); err != nil {
		return err
	}

	spotify, err := services.NewSpotifyService(r.config.Credentials.Spotify)
	if err != nil {
		return err
	}

	tokens := server.NewSessionStore(r.config.Server.SessionSecret, r.config.Production())
	coverGen := cover.NewGenerator(cover.Options{}, r.logger)

	handler, err := web.New(spotify, tokens, coverGen, r.config.Playlist, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build web handler: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(
		server.Recover(r.logger),
		server.Logging(r.logger),
		server.HTTPSRedirect(r.config.Production()),
		server.CSPNonce(),
	)
	handler.Register(router)

	srv := &http.Server{
		Addr:              r.config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser("http://" + r.config.Addr()); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	r.logger.Info("discojam is running", "addr", r.config.Addr(), "env", r.config.Server.Environment)

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		r.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
