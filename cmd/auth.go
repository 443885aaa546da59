package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/setsvm/novi/internal/forms"
	"github.com/setsvm/novi/internal/services"
)

// tokenHolder is implemented by clients that keep the gateway token.
type tokenHolder interface {
	Token() (*oauth2.Token, error)
}

// AuthLogin signs in with email and password and keeps the token in the CLI scope.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	form := &forms.LoginForm{
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}
	if err := forms.Validate(form).Err(); err != nil {
		return err
	}

	w, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	r.logger.Info("signing in", "email", form.Email)

	session, err := w.Auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return r.writePlain("✓ Signed in as %s <%s>\n", session.Display(), session.Email)
}

// AuthSignup registers an account. It does not sign in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	form := &forms.SignupForm{
		Name:            strings.TrimSpace(cmd.String("name")),
		Email:           strings.TrimSpace(cmd.String("email")),
		Password:        password,
		ConfirmPassword: password,
	}
	if err := forms.Validate(form).Err(); err != nil {
		return err
	}

	w, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.API.Signup(ctx, form.Name, form.Email, form.Password); err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	r.writePlain("✓ Account created for %s\n", form.Email)
	return r.writePlain("Run 'novi auth login --email %s' to sign in\n", form.Email)
}

// AuthLogout forgets the stored token and user record.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	w, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	if !w.Auth.IsAuthenticated() {
		return r.writePlain("Not signed in\n")
	}

	w.Auth.Logout(ctx)
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the stored session and, for the real gateway, whether it answers.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	w, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	r.writePlainHeader("Authentication")
	if session := w.Auth.Session(); session != nil {
		if session.IsPlaceholder() {
			r.writePlain("Signed in (no cached profile)\n")
		} else {
			r.writePlain("Signed in as %s <%s>\n", session.Display(), session.Email)
		}
		r.writeTokenExpiry(w)
	} else {
		r.writePlain("Not signed in\n")
	}

	if w.Gateway == nil {
		return nil
	}

	if err := w.Gateway.Ping(ctx); err != nil {
		r.logger.Debug("gateway ping failed", "error", err)
		return r.writePlain("API: ✗ %s unreachable\n", w.Gateway.BaseURL())
	}
	return r.writePlain("API: ✓ %s\n", w.Gateway.BaseURL())
}

// writeTokenExpiry prints the access token's exp claim when the token carries one.
func (r *Runner) writeTokenExpiry(w *workspace) {
	holder, ok := w.API.(tokenHolder)
	if !ok {
		return
	}
	token, err := holder.Token()
	if err != nil || token == nil {
		r.logger.Debug("no token to inspect", "error", err)
		return
	}
	exp, ok := services.TokenExpiry(token.AccessToken)
	if !ok {
		return
	}
	if exp.Before(r.now()) {
		r.writePlain("Token expired %s (run 'novi auth login' to sign in again)\n", exp.UTC().Format("2006-01-02 15:04 MST"))
		return
	}
	r.writePlain("Token expires %s\n", exp.UTC().Format("2006-01-02 15:04 MST"))
}
