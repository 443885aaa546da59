package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/setsvm/novi/internal/auth"
	"github.com/setsvm/novi/internal/services"
	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	// client and store replace the configured gateway client and database scope when set.
	client services.Client
	store  storage.Storage
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
	Client     services.Client
	Store      storage.Storage
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
		client:     opts.Client,
		store:      opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, contentCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig resolves configuration once: .env, then the TOML file (defaults when missing),
// then NOVI_* overrides. A config injected through [RunnerOpts] is used as is.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	if err := shared.LoadEnv(".env"); err != nil {
		r.logger.Warn("ignoring .env", "error", err)
	}

	path := r.configPath
	if path == "" && cmd != nil {
		path = cmd.String("config")
	}

	config := shared.DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	if err := shared.ApplyEnv(config); err != nil {
		return nil, err
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))

	r.config = config
	return config, nil
}

// gateway builds the shared transport to the content API.
func (r *Runner) gateway(config *shared.Config) *services.APIService {
	return services.NewAPIService(services.APIServiceOpts{
		BaseURL:           config.API.BaseURL,
		HTTPClient:        r.httpClient,
		Timeout:           config.API.Timeout(),
		UploadTimeout:     config.API.UploadTimeout(),
		RequestsPerMinute: config.API.RequestsPerMinute,
		Logger:            shared.WithLogger(r.logger, "component", "api"),
	})
}

// workspace is the CLI's client: its storage scope, API client and auth store.
type workspace struct {
	API     services.Client
	Auth    *auth.Store
	Gateway *services.APIService // nil when the client was injected
	db      *sql.DB
}

// Close disposes the auth store and closes the database.
func (w *workspace) Close() error {
	w.Auth.Dispose()
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// open connects the CLI client. Its storage scope is the configured cli.client_id.
func (r *Runner) open(cmd *cli.Command) (*workspace, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	w := &workspace{API: r.client}
	store := r.store
	if store == nil {
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return nil, err
		}
		w.db = db
		store = storage.NewSQLiteStorage(db).Scope(config.CLI.ClientID)
	}
	if w.API == nil {
		w.Gateway = r.gateway(config)
		w.API = w.Gateway.Bind(store)
	}

	w.Auth = auth.NewStore(w.API, store, shared.WithLogger(r.logger, "client", config.CLI.ClientID))
	w.Auth.Initialize()
	return w, nil
}

// signedIn opens the workspace and fails when nobody is signed in.
func (r *Runner) signedIn(cmd *cli.Command) (*workspace, error) {
	w, err := r.open(cmd)
	if err != nil {
		return nil, err
	}
	if !w.Auth.IsAuthenticated() {
		w.Close()
		return nil, fmt.Errorf("%w: run `novi auth login` first", shared.ErrNotAuthenticated)
	}
	return w, nil
}

// check signs the workspace out when err is an authentication failure and adds a hint.
func (w *workspace) check(ctx context.Context, err error) error {
	if err = w.Auth.CheckError(ctx, err); errors.Is(err, shared.ErrAuthentication) {
		return fmt.Errorf("%w (run `novi auth login` to sign in again)", err)
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
