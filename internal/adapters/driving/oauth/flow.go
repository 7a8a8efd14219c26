package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// flowTimeout bounds how long the flow waits for the user to complete
// consent in the browser.
const flowTimeout = 5 * time.Minute

// RunLoopbackFlow performs the authorization-code-with-PKCE flow
// against a loopback redirect. It starts a local callback server on a
// random port, opens the browser to the consent page, waits for the
// redirect, and exchanges the code for a token.
//
// The returned token includes a refresh token when the provider grants
// offline access, which the consent URL explicitly requests.
func RunLoopbackFlow(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	server := NewCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("stopping callback server: %v", err)
		}
	}()

	// The redirect URI must match the port the server actually bound.
	flowCfg := *cfg
	flowCfg.RedirectURL = server.RedirectURI()

	authURL := flowCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	)

	if err := OpenBrowser(authURL); err != nil {
		logger.Warn("could not open browser: %v", err)
		fmt.Printf("Open this URL in your browser to authorize:\n\n  %s\n\n", authURL)
	} else {
		fmt.Println("Waiting for authorization in your browser...")
	}

	code, err := server.WaitForCode(flowTimeout)
	if err != nil {
		return nil, fmt.Errorf("waiting for authorization: %w", err)
	}

	token, err := flowCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}
