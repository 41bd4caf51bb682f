package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/draftwire/draftwire/pkg/log"
)

// DefaultScopes are the token scopes a publish needs: repository contents
// and pull requests.
var DefaultScopes = []string{"repo"}

// Flow runs the GitHub OAuth device authorization flow. The user is shown
// a one-time code to enter at the verification URL while the flow polls the
// token endpoint; cancelling the context stops the polling.
type Flow struct {
	// ClientID is the OAuth app client ID.
	ClientID string

	// Scopes requested for the token. Defaults to DefaultScopes.
	Scopes []string

	// Endpoint is the OAuth endpoint. Defaults to GitHub; tests point it
	// at a local server.
	Endpoint oauth2.Endpoint

	// Notify is called once with the user code and verification URL. If
	// nil, both are printed to the log.
	Notify func(userCode, verificationURL string)
}

// Authorize obtains a token via device authorization.
func (f *Flow) Authorize(ctx context.Context) (string, error) {
	if f.ClientID == "" {
		return "", fmt.Errorf("device flow requires a client ID")
	}

	scopes := f.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	endpoint := f.Endpoint
	if endpoint.DeviceAuthURL == "" {
		endpoint = endpoints.GitHub
	}

	cfg := &oauth2.Config{
		ClientID: f.ClientID,
		Scopes:   scopes,
		Endpoint: endpoint,
	}

	deviceAuth, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start device authorization: %w", err)
	}

	if f.Notify != nil {
		f.Notify(deviceAuth.UserCode, deviceAuth.VerificationURI)
	} else {
		log.Infof("visit %s and enter code %s", deviceAuth.VerificationURI, deviceAuth.UserCode)
	}

	// Polls the token endpoint at the interval the server asked for, until
	// the user approves, the code expires, or ctx is cancelled.
	token, err := cfg.DeviceAccessToken(ctx, deviceAuth)
	if err != nil {
		return "", fmt.Errorf("device authorization failed: %w", err)
	}
	return token.AccessToken, nil
}
