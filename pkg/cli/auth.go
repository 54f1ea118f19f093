package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/auth"
	urfave "github.com/urfave/cli/v3"
)

const (
	keyringService = "churnctl"

	tokenFlagName    = "token"
	clientIDFlagName = "client-id"
	logoutFlagName   = "logout"

	clientIDEnvVar = "CHURNCTL_GITHUB_CLIENT_ID"
)

func newAuthCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store a GitHub token for model pull (artifact downloads only, the dashboard has no login)",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  tokenFlagName,
				Usage: "Store this token instead of running the device flow",
			},
			&urfave.StringFlag{
				Name:    clientIDFlagName,
				Usage:   "GitHub OAuth app client ID used for the device flow",
				Sources: urfave.EnvVars(clientIDEnvVar),
			},
			&urfave.BoolFlag{
				Name:  logoutFlagName,
				Usage: "Remove the stored token",
			},
		},
		Action: cmdAuth,
	}
}

func tokenStore(cmd *urfave.Command) *auth.Store {
	return &auth.Store{
		Service: keyringService,
		Dir:     getConfig(cmd).Dir,
	}
}

func cmdAuth(ctx context.Context, cmd *urfave.Command) error {
	applyFlags(cmd)
	store := tokenStore(cmd)
	w := cmd.Root().Writer

	if cmd.Bool(logoutFlagName) {
		if err := store.Delete(); err != nil {
			return fmt.Errorf("deleting token: %w", err)
		}
		fmt.Fprintln(w, "Token removed")
		return nil
	}

	token := cmd.String(tokenFlagName)
	if token == "" {
		t, err := runDeviceFlow(ctx, cmd)
		if err != nil {
			return err
		}
		token = t
	}

	if err := store.Save(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(w, "Token saved")
	return nil
}

func runDeviceFlow(ctx context.Context, cmd *urfave.Command) (string, error) {
	clientID := cmd.String(clientIDFlagName)
	if clientID == "" {
		return "", fmt.Errorf("either --%s or --%s (%s) is required", tokenFlagName, clientIDFlagName, clientIDEnvVar)
	}

	flow, err := auth.NewDeviceFlow(clientID)
	if err != nil {
		return "", err
	}

	code, err := flow.Start(ctx)
	if err != nil {
		return "", fmt.Errorf("getting device code: %w", err)
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "1). Copy this code: %s\n", code.UserCode)
	fmt.Fprintf(w, "2). Navigate to this URL in your browser to authenticate: %s\n", code.VerificationURI)
	fmt.Fprintln(w, "3). Waiting for approval...")

	tok, err := flow.Wait(ctx, code)
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	return tok.AccessToken, nil
}

// getGitHubToken returns the token flag value or the stored token. An
// empty token is not an error; public releases don't need one.
func getGitHubToken(cmd *urfave.Command) (string, error) {
	if t := cmd.String(tokenFlagName); t != "" {
		return t, nil
	}

	t, err := tokenStore(cmd).Get()
	if errors.Is(err, auth.ErrNoToken) {
		slog.Debug("no GitHub token stored, using anonymous access")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading stored token: %w", err)
	}
	return t, nil
}
