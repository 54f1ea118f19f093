// Package auth obtains and stores the GitHub token used for artifact pulls.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/net"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// no scopes requested (read-only public access)
var deviceScopes = []string{}

// DeviceFlow runs the OAuth device authorization grant.
type DeviceFlow struct {
	conf *oauth2.Config
}

// NewDeviceFlow creates a flow against github.com for the OAuth app clientID.
func NewDeviceFlow(clientID string) (*DeviceFlow, error) {
	return NewDeviceFlowWithEndpoint(clientID, github.Endpoint)
}

// NewDeviceFlowWithEndpoint creates a flow against a custom endpoint.
func NewDeviceFlowWithEndpoint(clientID string, ep oauth2.Endpoint) (*DeviceFlow, error) {
	if clientID == "" {
		return nil, errors.New("clientID is required")
	}
	if ep.AuthStyle == oauth2.AuthStyleAutoDetect {
		ep.AuthStyle = oauth2.AuthStyleInParams
	}
	return &DeviceFlow{
		conf: &oauth2.Config{
			ClientID: clientID,
			Endpoint: ep,
			Scopes:   deviceScopes,
		},
	}, nil
}

func withClient(ctx context.Context) (context.Context, error) {
	client, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get http client: %w", err)
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client), nil
}

// Start requests a device and user code pair.
func (f *DeviceFlow) Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	ctx, err := withClient(ctx)
	if err != nil {
		return nil, err
	}
	code, err := f.conf.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device code: %w", err)
	}
	return code, nil
}

// Wait polls until the user approves the code, it expires or ctx is done.
func (f *DeviceFlow) Wait(ctx context.Context, code *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	if code == nil {
		return nil, errors.New("device code is nil")
	}
	ctx, err := withClient(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := f.conf.DeviceAccessToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("access token is empty")
	}
	return tok, nil
}
