package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/net"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/release"
	urfave "github.com/urfave/cli/v3"
)

const (
	urlFlagName   = "url"
	repoFlagName  = "repo"
	tagFlagName   = "tag"
	assetFlagName = "asset"

	githubTokenEnvVar = "GITHUB_TOKEN"
	dirMode           = 0700
)

func newModelCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "model",
		HideHelpCommand: true,
		Usage:           "Model artifact commands",
		Commands: []*urfave.Command{
			{
				Name:   "inspect",
				Usage:  "Print metadata of the configured model artifact",
				Action: cmdModelInspect,
			},
			{
				Name:  "pull",
				Usage: "Download the model artifact to the configured model path",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  urlFlagName,
						Usage: "HTTPS URL of the artifact",
					},
					&urfave.StringFlag{
						Name:  repoFlagName,
						Usage: "GitHub repository with the artifact release (owner/name)",
					},
					&urfave.StringFlag{
						Name:  tagFlagName,
						Usage: "Release tag (default: latest)",
					},
					&urfave.StringFlag{
						Name:  assetFlagName,
						Usage: "Release asset name (default: first .json asset)",
					},
					&urfave.StringFlag{
						Name:    tokenFlagName,
						Usage:   "GitHub token (default: token stored by auth)",
						Sources: urfave.EnvVars(githubTokenEnvVar),
					},
				},
				Action: cmdModelPull,
			},
		},
	}
}

func cmdModelInspect(_ context.Context, cmd *urfave.Command) error {
	applyFlags(cmd)
	cfg := getConfig(cmd)

	cfg.loadModel()
	if cfg.loadErr != nil {
		return cfg.loadErr
	}
	return encode(cmd.Root().Writer, cfg.OutputFormat, cfg.info)
}

var errPullSource = errors.New("exactly one of --url or --repo is required")

func cmdModelPull(ctx context.Context, cmd *urfave.Command) error {
	applyFlags(cmd)
	cfg := getConfig(cmd)

	url := cmd.String(urlFlagName)
	repo := cmd.String(repoFlagName)
	if (url == "") == (repo == "") {
		return errPullSource
	}

	dst := cfg.ModelPath
	if dst == "" {
		return errors.New("model path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	// validated before it replaces the current artifact
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".pull")
	defer os.Remove(tmp)

	if url != "" {
		slog.Info("downloading model", "url", url)
		if err := net.Download(ctx, nil, url, tmp); err != nil {
			return fmt.Errorf("downloading model: %w", err)
		}
	} else {
		if err := pullRelease(ctx, cmd, repo, tmp); err != nil {
			return err
		}
	}

	f, err := model.Load(tmp)
	if err != nil {
		return fmt.Errorf("downloaded artifact is not a valid model: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("moving model into place: %w", err)
	}

	info := f.Info()
	info.Path = dst
	slog.Info("model saved", "path", dst, "name", info.Name, "version", info.Version)
	return encode(cmd.Root().Writer, cfg.OutputFormat, info)
}

func pullRelease(ctx context.Context, cmd *urfave.Command, repo, dst string) error {
	owner, name, err := release.ParseRepo(repo)
	if err != nil {
		return err
	}

	token, err := getGitHubToken(cmd)
	if err != nil {
		return err
	}

	src := release.Source{
		Owner: owner,
		Repo:  name,
		Tag:   cmd.String(tagFlagName),
		Asset: cmd.String(assetFlagName),
	}

	asset, err := release.Pull(ctx, release.NewClient(ctx, token), src, dst)
	if err != nil {
		return fmt.Errorf("pulling release asset: %w", err)
	}
	slog.Info("release asset downloaded", "repo", repo, "asset", asset.GetName())
	return nil
}
