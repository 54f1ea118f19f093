package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/config"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/logging"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/predict"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "churnctl"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	modelPathEnvVar = "CHURNCTL_MODEL"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	logLevel = &slog.LevelVar{}
)

const (
	debugFlagName     = "debug"
	configDirFlagName = "config"
	modelPathFlagName = "model"
	formatFlagName    = "format"
)

func globalFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.BoolFlag{
			Name:  debugFlagName,
			Usage: "Prints verbose logs (optional, default: false)",
		},
		&urfave.StringFlag{
			Name:  configDirFlagName,
			Usage: "Path to the config directory (default: $HOME/.churnctl)",
		},
		&urfave.StringFlag{
			Name:    modelPathFlagName,
			Usage:   "Path to the model artifact (overrides config model_path)",
			Sources: urfave.EnvVars(modelPathEnvVar),
		},
		&urfave.StringFlag{
			Name:  formatFlagName,
			Usage: "Output format [json, yaml]",
			Value: formatJSON,
		},
	}
}

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(os.Stderr)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir          string
	Config       *config.Config
	ModelPath    string
	OutputFormat string

	loadOnce sync.Once
	service  *predict.Service
	info     *model.Info
	loadErr  error
}

// loadModel loads the artifact once per process. A failure is logged and
// kept for the UI; the returned service then fails every prediction.
func (a *appConfig) loadModel() *predict.Service {
	a.loadOnce.Do(func() {
		f, err := model.Load(a.ModelPath)
		if err != nil {
			a.loadErr = err
			a.service = predict.NewService(nil)
			slog.Warn("model unavailable, predictions will fail", "path", a.ModelPath, "error", err)
			return
		}

		a.info = f.Info()
		a.info.Path = a.ModelPath
		a.service = predict.NewService(f)
		slog.Info("model loaded", "path", a.ModelPath, "name", a.info.Name, "version", a.info.Version)
	})
	return a.service
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Churn risk predictor with a local dashboard",
		Metadata:              map[string]any{},
		Flags:                 globalFlags(),
		Commands: []*urfave.Command{
			newServerCmd(),
			newPredictCmd(),
			newModelCmd(),
			newAuthCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			applyFlags(cmd)

			dir := cmd.String(configDirFlagName)
			if dir == "" {
				d, _, err := config.GetOrCreateHomeDir(appName)
				if err != nil {
					return ctx, fmt.Errorf("getting home dir: %w", err)
				}
				dir = d
			}

			cfg, err := config.ReadOrCreate(dir)
			if err != nil {
				return ctx, fmt.Errorf("reading config: %w", err)
			}

			if !cmd.Bool(debugFlagName) {
				logLevel.Set(logging.ParseLogLevel(cfg.LogLevel))
			}

			modelPath := cmd.String(modelPathFlagName)
			if modelPath == "" {
				modelPath = cfg.ResolveModelPath(dir)
			}

			f := cmd.String(formatFlagName)
			if err := validateFormat(f); err != nil {
				return ctx, err
			}
			format := formatJSON
			if f == formatYAML || f == "yml" {
				format = formatYAML
			}

			cmd.Metadata[appConfigKey] = &appConfig{
				Dir:          dir,
				Config:       cfg,
				ModelPath:    modelPath,
				OutputFormat: format,
			}
			return ctx, nil
		},
	}
}

// applyFlags re-reads flags that may be given after the subcommand name.
func applyFlags(cmd *urfave.Command) {
	if cmd.Bool(debugFlagName) {
		logLevel.Set(slog.LevelDebug)
	}
}

func initLogging(w io.Writer) {
	logLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(logging.NewCLIHandler(w, logLevel)))
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

var errUnknownFormat = errors.New("unknown output format")

func validateFormat(f string) error {
	switch f {
	case formatJSON, formatYAML, "yml":
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownFormat, f)
	}
}
