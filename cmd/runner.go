package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/auth"
	"github.com/desertthunder/learnx/internal/qa"
	"github.com/desertthunder/learnx/internal/repositories"
	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	tokens     *auth.Store
	api        *services.APIService
	content    *services.ContentService
	qaService  *services.QAService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.PresentationEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Tokens     *auth.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Every backend request goes through a client that attaches the stored token and drops it on a 401.
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Tokens == nil {
		opts.Tokens = loadTokens(opts.Config, opts.Logger)
	}

	api := services.NewAPIService(opts.Config.Backend.APIURL, auth.NewClient(opts.Tokens, opts.HTTPClient))
	content := services.NewContentService(api)

	engine := tasks.NewPresentationEngine(content, nil)
	engine.SetLimits(opts.Config.Presentation.FetchWorkers, opts.Config.Presentation.RateLimit)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		tokens:     opts.Tokens,
		api:        api,
		content:    content,
		qaService:  services.NewQAService(api),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     engine,
	}
}

func loadTokens(config *shared.Config, logger *log.Logger) *auth.Store {
	path := config.Auth.TokenPath
	if path == "" {
		path = shared.HomePath("token")
	}

	store, err := auth.NewStore(path)
	if err != nil {
		logger.Warn("failed to load stored token, continuing without one", "path", path, "error", err)
		return auth.NewMemoryStore("")
	}
	return store
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, qaCommand, presentCommand, cacheCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger while a TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// qaClient builds a Q&A connection manager for the configured socket URL.
func (r *Runner) qaClient() *qa.Client {
	return qa.NewClient(qa.ClientOpts{
		URL:         r.config.QAWebSocketURL(),
		Tokens:      r.tokens,
		Transcriber: r.qaService,
		Logger:      r.logger,
	})
}

// openCache opens the slide cache and wires it into the engine.
func (r *Runner) openCache() (*sql.DB, error) {
	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	adapter := repositories.NewSlideCacheAdapter(
		repositories.NewPresentationRepository(db),
		repositories.NewSlideRepository(db),
	)
	r.engine = tasks.NewPresentationEngine(r.content, adapter)
	r.engine.SetLimits(r.config.Presentation.FetchWorkers, r.config.Presentation.RateLimit)
	return db, nil
}

func (r *Runner) advanceDelay() time.Duration {
	if r.config.Presentation.AdvanceDelayMS <= 0 {
		return time.Second
	}
	return time.Duration(r.config.Presentation.AdvanceDelayMS) * time.Millisecond
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
