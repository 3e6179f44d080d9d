package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/soundbits/internal/server"
	"github.com/desertthunder/soundbits/internal/services"
	"github.com/desertthunder/soundbits/internal/shared"
	"github.com/desertthunder/soundbits/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Opener opens a URL for the user; [shared.OpenBrowser] in production.
type Opener func(url string) error

// Auth performs the OAuth2 authorization-code flow for Spotify and saves the access token to the config file.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	creds := r.config.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or via %s/%s",
			shared.ErrMissingCredentials, r.configPath, shared.EnvClientID, shared.EnvClientSecret)
	}

	oauthConfig := services.NewAuthConfig(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
	token, err := r.doOAuth(ctx, oauthConfig, shared.OpenBrowser, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := shared.SaveToken(r.configPath, token); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlain("\n%s\n", ui.Success("✓ Authorization successful"))
	r.writePlain("✓ Access token saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: soundbits playlist create\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, config *oauth2.Config, open Opener, timeout time.Duration) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(config, state)
	router := server.NewCallbackRouter(oauthHandler, r.logger)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	callback := server.NewCallbackServer(addr, router, r.logger)
	if err := callback.Start(); err != nil {
		return nil, err
	}
	r.logger.Infof("started OAuth callback server at %v", callback.Addr())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := callback.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := open(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlain("\n%s\n", ui.Warn("⚠ Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-callback.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
