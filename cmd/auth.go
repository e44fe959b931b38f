package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/learnx/internal/auth"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

// tokenPath is the backend's OAuth2 password grant endpoint.
const tokenPath = "/auth/token"

// AuthLogin stores an access token taken from --token, a copied cURL command, or a password login.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	token, source, err := r.resolveToken(ctx, cmd)
	if err != nil {
		return err
	}

	claims, err := auth.Decode(token)
	if err != nil {
		return err
	}
	if claims.Expired(time.Now()) {
		return fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
	}

	if err := r.tokens.Set(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.logger.Info("token stored", "source", source, "subject", claims.Subject, "path", r.tokens.Path())
	r.writePlain("✓ Logged in as %s\n", displayName(claims))
	if p := r.tokens.Path(); p != "" {
		r.writePlain("Token saved to: %s\n", p)
	}
	return nil
}

func (r *Runner) resolveToken(ctx context.Context, cmd *cli.Command) (token, source string, err error) {
	direct := strings.TrimSpace(cmd.String("token"))
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	username := cmd.String("username")

	given := 0
	for _, v := range []string{direct, curlCmd, curlFile, username} {
		if v != "" {
			given++
		}
	}
	switch {
	case given == 0:
		return "", "", fmt.Errorf("%w: one of --token, --curl, --curl-file or --username must be provided", shared.ErrMissingArgument)
	case given > 1:
		return "", "", fmt.Errorf("%w: --token, --curl, --curl-file and --username are mutually exclusive", shared.ErrInvalidArgument)
	}

	switch {
	case direct != "":
		return direct, "flag", nil

	case curlCmd != "" || curlFile != "":
		var req *shared.CurlRequest
		if curlFile != "" {
			req, err = shared.ParseCurlFile(curlFile)
		} else {
			req, err = shared.ParseCurlCommand([]byte(curlCmd))
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to parse cURL command: %w", err)
		}
		token, err = req.BearerToken()
		return token, "curl", err

	default:
		password := cmd.String("password")
		if password == "" {
			return "", "", fmt.Errorf("%w: --password is required with --username", shared.ErrMissingArgument)
		}
		r.logger.Info("requesting token", "username", username)
		token, err = auth.Login(ctx, r.api.BaseURL()+tokenPath, username, password)
		return token, "password", err
	}
}

// AuthStatus prints the stored token's claims without contacting the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, ok := r.tokens.Token()
	if !ok {
		return fmt.Errorf("%w: run 'learnx auth login' first", shared.ErrNotAuthenticated)
	}

	claims, err := auth.Decode(token)
	if err != nil {
		return err
	}
	expired := claims.Expired(time.Now())

	if cmd.Bool("json") {
		status := map[string]any{
			"subject": claims.Subject,
			"role":    claims.Role,
			"email":   claims.Email,
			"expired": expired,
		}
		if !claims.ExpiresAt.IsZero() {
			status["expires_at"] = claims.ExpiresAt.Format(time.RFC3339)
		}
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Authentication")
	r.writePlain("Subject: %s\n", orDash(claims.Subject))
	r.writePlain("Email:   %s\n", orDash(claims.Email))
	r.writePlain("Role:    %s\n", orDash(claims.Role))

	switch {
	case claims.ExpiresAt.IsZero():
		r.writePlain("Expires: never\n")
	case expired:
		r.writePlain("Expires: %s (✗ expired)\n", claims.ExpiresAt.Format(time.RFC3339))
	default:
		left := time.Until(claims.ExpiresAt).Round(time.Second)
		r.writePlain("Expires: %s (%s left)\n", claims.ExpiresAt.Format(time.RFC3339), left)
	}
	return nil
}

// AuthLogout clears the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if _, ok := r.tokens.Token(); !ok {
		return r.writePlain("Not logged in\n")
	}
	r.tokens.Invalidate()
	r.logger.Info("token cleared", "path", r.tokens.Path())
	return r.writePlain("✓ Logged out\n")
}

func displayName(c *auth.Claims) string {
	switch {
	case c.Email != "":
		return c.Email
	case c.Subject != "":
		return c.Subject
	default:
		return "unknown user"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
