package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartlist/internal/chart"
	"github.com/desertthunder/chartlist/internal/services"
	"github.com/desertthunder/chartlist/internal/shared"
	"github.com/desertthunder/chartlist/internal/tasks"
	"github.com/desertthunder/chartlist/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// PromptFunc asks the user for a chart date. notice explains why a previous date was rejected.
type PromptFunc func(ctx context.Context, title, notice string) (string, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	loadConfig bool
	spotify    *services.SpotifyService
	catalog    services.Catalog
	source     chart.Source
	prompt     PromptFunc
	browser    func(url string) error
	httpClient *http.Client
	logger     *log.Logger
	ownLogger  bool
	output     io.Writer
	input      io.Reader
	closer     io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config, Logger and Spotify are built from the config file by [Runner.Bootstrap] when left nil.
// Catalog and Source replace the Spotify session and the Billboard scraper, mostly for tests.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	Catalog    services.Catalog
	Source     chart.Source
	Prompt     PromptFunc
	Browser    func(url string) error
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loadConfig := opts.Config == nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	ownLogger := opts.Logger == nil
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		loadConfig: loadConfig,
		spotify:    opts.Spotify,
		catalog:    opts.Catalog,
		source:     opts.Source,
		prompt:     opts.Prompt,
		browser:    opts.Browser,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		ownLogger:  ownLogger,
		output:     opts.Output,
		input:      opts.Input,
	}
	if r.prompt == nil {
		r.prompt = r.promptTerminal
	}
	return r
}

// Bootstrap loads the config file, configures logging and prepares the Spotify service.
// It runs as the root command's Before hook.
func (r *Runner) Bootstrap(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") || r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.loadConfig && r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	if r.ownLogger {
		r.logger, r.closer = shared.NewConfiguredLogger(r.config.Log)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.spotify == nil && r.config.Credentials.Spotify.HasClient() {
		if err := r.initSpotify(ctx); err != nil {
			r.logger.Warn("spotify service unavailable", "error", err)
		}
	}

	return ctx, nil
}

// Close releases the log file opened by [Runner.Bootstrap].
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Runner) initSpotify(ctx context.Context) error {
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed spotify token saved", "path", r.configPath)
	})

	if token := r.config.Credentials.Spotify.Token(); token != nil {
		if err := svc.OAuthenticate(ctx, token); err != nil {
			return err
		}
	}

	r.spotify = svc
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, chartCommand, spotifyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// chartSource returns the configured chart source, building the Billboard scraper on first use.
func (r *Runner) chartSource() chart.Source {
	if r.source == nil {
		cfg := r.config.Chart
		r.source = chart.NewBillboardSource(chart.SourceOpts{
			BaseURL:         cfg.BaseURL,
			UserAgent:       cfg.UserAgent,
			LegacyThreshold: cfg.LegacyThreshold,
			RateLimit:       cfg.RateLimit,
			HTTPClient:      &http.Client{Timeout: cfg.Timeout(), Transport: r.httpClient.Transport},
			Logger:          r.logger,
		})
	}
	return r.source
}

func (r *Runner) newResolver(logger *log.Logger) (*chart.Resolver, error) {
	cfg := r.config.Chart
	weekday, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}

	return chart.NewResolver(chart.ResolverOpts{
		Source:      r.chartSource(),
		Weekday:     &weekday,
		MinComplete: cfg.MinComplete,
		MaxAttempts: cfg.MaxAttempts,
		StepDays:    cfg.StepDays,
		Logger:      logger,
	}), nil
}

func (r *Runner) newEngine(resolver *chart.Resolver, catalog services.Catalog, logger *log.Logger) *tasks.ChartEngine {
	return tasks.NewChartEngine(tasks.EngineOpts{
		Resolver:   resolver,
		Catalog:    catalog,
		Logger:     logger,
		ChartName:  r.config.Chart.Name,
		ChartTitle: r.config.Chart.Title,
	})
}

// openCatalog returns the injected catalog or opens a Spotify session, authorizing first when
// no usable token is stored.
func (r *Runner) openCatalog(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	session, err := services.OpenSession(ctx, r.spotify)
	if err != nil {
		reauthed, authErr := r.handleSpotifyAuthError(ctx, err)
		if !reauthed {
			return nil, err
		}
		if authErr != nil {
			return nil, authErr
		}
		if session, err = services.OpenSession(ctx, r.spotify); err != nil {
			return nil, err
		}
	}

	r.logger.Info("logged into spotify", "user", session.DisplayName())
	r.catalog = session
	return session, nil
}

func (r *Runner) promptTerminal(ctx context.Context, title, notice string) (string, error) {
	return ui.PromptDate(ctx, r.input, r.output, title, notice)
}

// saveTokens stores token in the config and persists it when a config path is known.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return errors.New("config is nil")
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
