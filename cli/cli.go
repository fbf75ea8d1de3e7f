package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cfrepro/cfrepro/config"
	"github.com/cfrepro/cfrepro/shell"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "cfrepro"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	in     io.Reader
	out    io.Writer
	exec   shell.Executor
}

// Option configures an App.
type Option func(*App)

// WithIO replaces stdin and stdout used for prompts and listings.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

// WithExecutor replaces the local command executor.
func WithExecutor(e shell.Executor) Option {
	return func(a *App) {
		a.exec = e
	}
}

// WithLogger replaces the console logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithExitHandler replaces the handler that turns exit codes into process
// exits.
func WithExitHandler(h cli.ExitErrHandlerFunc) Option {
	return func(a *App) {
		a.cli.ExitErrHandler = h
	}
}

func New(opts ...Option) *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Reproduce ClusterFuzz crashes locally",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "config",
					Usage:   "Path to the config file",
					Value:   config.DefaultPath(),
					EnvVars: []string{"CFREPRO_CONFIG"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.exec == nil {
		app.exec = shell.New(app.logger)
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "reproduce",
		Usage:     "Reproduce a ClusterFuzz testcase locally",
		ArgsUsage: "<testcase-id>",
		Action:    app.reproduce,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "download",
				Usage: "Use the prebuilt binary instead of building from a V8 checkout",
			},
			&cli.BoolFlag{
				Name:  "current",
				Usage: "Build the V8 checkout as it is, without checking out the crash revision",
			},
			&cli.StringFlag{
				Name:  "v8-src",
				Usage: "V8 checkout to build from (default: $V8_SRC, otherwise asked)",
			},
			&cli.StringFlag{
				Name:  "goma-dir",
				Usage: "goma installation (default: $GOMA_DIR or ~/goma)",
			},
			&cli.StringFlag{
				Name:  "build-dir",
				Usage: "Use the binary in this directory, skipping download and build",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "How build archives are copied: gsutil or api",
			},
			&cli.IntFlag{
				Name:  "jobs-multiplier",
				Usage: "Multiplier applied to the CPU count for ninja -j",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "login",
		Usage:  "Authenticate with ClusterFuzz and store the credentials",
		Action: app.login,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous reproductions",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "testcase",
				Aliases: []string{"t"},
				Usage:   "Filter by testcase ID",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View a reproduction from history",
		ArgsUsage:       "[ID|INDEX]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View a reproduction from history.

Arguments:
  0           View last reproduction (default)
  -1          View 2nd last reproduction
  <id>        View reproduction matching the ID prefix

Examples:
  cfrepro view           # View last reproduction
  cfrepro view -1        # View 2nd last reproduction
  cfrepro view 3f2a      # View reproduction with ID starting with 3f2a`,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}

// loadConfig reads the config file and applies command flags on top.
func (a *App) loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if ctx.IsSet("v8-src") {
		cfg.V8Src = config.ExpandHome(ctx.String("v8-src"))
	}
	if ctx.IsSet("goma-dir") {
		cfg.GomaDir = config.ExpandHome(ctx.String("goma-dir"))
	}
	if ctx.IsSet("storage") {
		cfg.StorageBackend = ctx.String("storage")
	}
	if ctx.IsSet("jobs-multiplier") {
		cfg.JobsMultiplier = ctx.Int("jobs-multiplier")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	a.logger.Debug().
		Str("clusterfuzz_dir", cfg.ClusterfuzzDir).
		Str("storage", cfg.StorageBackend).
		Msg("Loaded configuration")
	return cfg, nil
}
