// Package release fetches the model artifact from a GitHub release.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/go-github/v83/github"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/net"
)

const (
	artifactExt = ".json"
	repoParts   = 2
)

var (
	ErrAssetNotFound = errors.New("release asset not found")
	ErrInvalidRepo   = errors.New("repo must be in owner/name format")
)

// Source identifies an artifact attached to a release.
type Source struct {
	Owner string
	Repo  string
	// Tag selects the release, latest when empty.
	Tag string
	// Asset is the file name, the first .json asset when empty.
	Asset string
}

// ParseRepo splits owner/name.
func ParseRepo(v string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(v), "/")
	if len(parts) != repoParts || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepo, v)
	}
	return parts[0], parts[1], nil
}

// NewClient returns a GitHub client, authenticated when token is set.
func NewClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	return github.NewClient(net.GetOAuthClient(ctx, token))
}

// Pull downloads the release asset described by src into dst.
func Pull(ctx context.Context, client *github.Client, src Source, dst string) (*github.ReleaseAsset, error) {
	if client == nil {
		return nil, errors.New("github client required")
	}

	rel, err := getRelease(ctx, client, src)
	if err != nil {
		return nil, err
	}

	asset := pickAsset(rel.Assets, src.Asset)
	if asset == nil {
		return nil, fmt.Errorf("%w: %q in %s/%s@%s", ErrAssetNotFound, src.Asset, src.Owner, src.Repo, rel.GetTagName())
	}

	slog.Debug("downloading release asset",
		"repo", src.Owner+"/"+src.Repo,
		"tag", rel.GetTagName(),
		"asset", asset.GetName(),
		"size", asset.GetSize(),
	)

	// without a redirect client the storage URL comes back for net.Download
	rc, redirect, err := client.Repositories.DownloadReleaseAsset(ctx, src.Owner, src.Repo, asset.GetID(), nil)
	if err != nil {
		return nil, fmt.Errorf("error downloading asset %s: %w", asset.GetName(), err)
	}

	if rc == nil {
		if redirect == "" {
			return nil, fmt.Errorf("asset %s returned no content", asset.GetName())
		}
		if err := net.Download(ctx, nil, redirect, dst); err != nil {
			return nil, fmt.Errorf("error following asset redirect: %w", err)
		}
		return asset, nil
	}
	defer rc.Close()

	if err := net.WriteFile(dst, rc); err != nil {
		return nil, err
	}
	return asset, nil
}

func getRelease(ctx context.Context, client *github.Client, src Source) (*github.RepositoryRelease, error) {
	var (
		rel *github.RepositoryRelease
		err error
	)
	if src.Tag == "" {
		rel, _, err = client.Repositories.GetLatestRelease(ctx, src.Owner, src.Repo)
	} else {
		rel, _, err = client.Repositories.GetReleaseByTag(ctx, src.Owner, src.Repo, src.Tag)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting release %s/%s@%s: %w", src.Owner, src.Repo, src.Tag, err)
	}
	return rel, nil
}

func pickAsset(assets []*github.ReleaseAsset, name string) *github.ReleaseAsset {
	for _, a := range assets {
		if name == "" && strings.EqualFold(path.Ext(a.GetName()), artifactExt) {
			return a
		}
		if name != "" && a.GetName() == name {
			return a
		}
	}
	return nil
}
