package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/config"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"
)

const (
	testForestPath = "../model/testdata/forest.json"
)

func TestMain(m *testing.M) {
	initLogging(io.Discard)
	keyring.MockInit()
	os.Exit(m.Run())
}

type stubScorer struct {
	proba []float64
	err   error
	panic bool
}

func (s *stubScorer) PredictProba(_ features.Vector) ([]float64, error) {
	if s.panic {
		return s.proba[1:], nil
	}
	return s.proba, s.err
}

// newTestConfig returns an app config whose model is already resolved to
// scorer, or left to fail loading when scorer is nil.
func newTestConfig(t *testing.T, scorer model.Scorer) *appConfig {
	t.Helper()
	cfg := &appConfig{
		Dir:          t.TempDir(),
		Config:       config.Default(),
		OutputFormat: formatJSON,
	}
	cfg.ModelPath = filepath.Join(cfg.Dir, "missing.json")
	if scorer != nil {
		cfg.loadOnce.Do(func() {
			cfg.service = predict.NewService(scorer)
			cfg.info = &model.Info{Name: "stub", Version: "0.1"}
		})
	}
	return cfg
}

// runApp runs the CLI with a temp config dir and returns stdout and stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	all := append([]string{appName, "--" + configDirFlagName, t.TempDir()}, args...)
	err := app.Run(context.Background(), all)
	return out.String(), errOut.String(), err
}

// newProbeCmd captures the config resolved by the root Before hook.
func newProbeCmd(got **appConfig) *urfave.Command {
	return &urfave.Command{
		Name: "probe",
		Action: func(_ context.Context, cmd *urfave.Command) error {
			*got = getConfig(cmd)
			return nil
		},
	}
}

func TestApp_Before(t *testing.T) {
	t.Setenv(modelPathEnvVar, "")
	var got *appConfig
	app := newApp()
	app.Writer = io.Discard
	app.Commands = append(app.Commands, newProbeCmd(&got))

	dir := t.TempDir()
	err := app.Run(context.Background(), []string{appName, "--config", dir, "--format", "yml", "probe"})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, dir, got.Dir)
	assert.Equal(t, formatYAML, got.OutputFormat)
	assert.Equal(t, filepath.Join(dir, "churn_forest.json"), got.ModelPath)
	assert.Equal(t, config.Default(), got.Config)

	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}

func TestApp_ModelFlagOverridesConfig(t *testing.T) {
	var got *appConfig
	app := newApp()
	app.Commands = append(app.Commands, newProbeCmd(&got))

	err := app.Run(context.Background(), []string{appName, "--config", t.TempDir(), "--model", "/srv/forest.json", "probe"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/forest.json", got.ModelPath)
}

func TestApp_UnknownFormat(t *testing.T) {
	_, _, err := runApp(t, "--format", "xml", "model", "inspect")
	assert.ErrorIs(t, err, errUnknownFormat)
}

func TestAppConfig_LoadModelOnce(t *testing.T) {
	cfg := newTestConfig(t, nil)
	cfg.ModelPath = testForestPath

	s1 := cfg.loadModel()
	s2 := cfg.loadModel()
	require.NoError(t, cfg.loadErr)
	assert.Same(t, s1, s2)
	assert.True(t, s1.Ready())
	assert.Equal(t, "churn-random-forest", cfg.info.Name)
	assert.Equal(t, testForestPath, cfg.info.Path)
}

func TestAppConfig_LoadModelFailure(t *testing.T) {
	cfg := newTestConfig(t, nil)

	s := cfg.loadModel()
	require.NotNil(t, s)
	assert.False(t, s.Ready())
	assert.ErrorIs(t, cfg.loadErr, model.ErrArtifactNotFound)
	assert.Nil(t, cfg.info)
}

func TestEncode(t *testing.T) {
	v := map[string]int{"trees": 2}

	var j bytes.Buffer
	require.NoError(t, encode(&j, formatJSON, v))
	assert.JSONEq(t, `{"trees": 2}`, j.String())

	var y bytes.Buffer
	require.NoError(t, encode(&y, formatYAML, v))
	assert.Equal(t, "trees: 2\n", y.String())
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"json", "yaml", "yml"} {
		assert.NoError(t, validateFormat(f), f)
	}
	assert.ErrorIs(t, validateFormat("csv"), errUnknownFormat)
}
