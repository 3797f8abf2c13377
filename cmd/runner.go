package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/urfave/cli/v3"
)

// envFile is read before the config so CLIENT_ID, CLIENT_SECRET and REDIRECT_URI can live outside config.toml.
const envFile = ".env"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, watchCommand, sessionsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig resolves configuration: dotenv, then the TOML file at path (defaults when missing), then env overrides.
// A config passed through [RunnerOpts] is used as the base instead of the file when path matches or is empty.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if err := shared.LoadEnv(envFile); err != nil {
		return nil, err
	}

	var config *shared.Config
	switch {
	case r.config != nil && (path == "" || path == r.configPath):
		config = r.config
	case path != "":
		if _, err := os.Stat(path); err != nil {
			r.logger.Warn("config file not found, using defaults", "path", path)
			config = shared.DefaultConfig()
			break
		}
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	default:
		config = shared.DefaultConfig()
	}

	config.ApplyEnv()

	if config.Log.Level != "" {
		level, err := log.ParseLevel(config.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: log level %q", shared.ErrInvalidConfig, config.Log.Level)
		}
		shared.SetLogLevel(r.logger, level)
	}

	r.config = config
	r.configPath = path
	return config, nil
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

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
