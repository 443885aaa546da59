package web

import (
	"errors"
	"net/http"

	"github.com/setsvm/novi/internal/forms"
	"github.com/setsvm/novi/internal/server"
	"github.com/setsvm/novi/internal/shared"
)

type homeData struct {
	MaxUploadMB int
}

type loginData struct {
	Form *forms.LoginForm
	Next string
}

type signupData struct {
	Form *forms.SignupForm
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	a.render(w, r, http.StatusOK, "home", a.page(w, r, state, homeData{MaxUploadMB: a.cfg.MaxUploadMB}))
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	next := r.URL.Query().Get("next")
	if state.Auth.IsAuthenticated() {
		redirect(w, r, server.SafeNext(next, dashboardPath))
		return
	}
	a.render(w, r, http.StatusOK, "login", a.page(w, r, state, loginData{Form: &forms.LoginForm{}, Next: next}))
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	next := r.URL.Query().Get("next")

	form := &forms.LoginForm{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	p := a.page(w, r, state, loginData{Form: form, Next: next})

	if errs := forms.Validate(form); len(errs) > 0 {
		p.Errors = errs
		a.render(w, r, http.StatusUnprocessableEntity, "login", p)
		return
	}

	if _, err := state.Auth.Login(r.Context(), form.Email, form.Password); err != nil {
		a.logger.Info("login failed", "client", state.ID, "error", err)
		status := statusFor(err)
		if errors.Is(err, shared.ErrDisposed) {
			status = http.StatusServiceUnavailable
		}
		p.Error = userMessage(err, "Invalid email or password")
		a.render(w, r, status, "login", p)
		return
	}

	state.Reset()
	redirect(w, r, server.SafeNext(next, dashboardPath))
}

func (a *App) signupForm(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	a.render(w, r, http.StatusOK, "signup", a.page(w, r, state, signupData{Form: &forms.SignupForm{}}))
}

func (a *App) signup(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)

	form := &forms.SignupForm{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	p := a.page(w, r, state, signupData{Form: form})

	if errs := forms.Validate(form); len(errs) > 0 {
		p.Errors = errs
		a.render(w, r, http.StatusUnprocessableEntity, "signup", p)
		return
	}

	if err := state.API.Signup(r.Context(), form.Name, form.Email, form.Password); err != nil {
		a.logger.Info("signup failed", "client", state.ID, "error", err)
		p.Error = userMessage(err, "Sign up failed. Please try again.")
		a.render(w, r, statusFor(err), "signup", p)
		return
	}

	a.flash(w, r, "Account created. Please sign in.")
	redirect(w, r, loginPath)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	state.Auth.Logout(r.Context())
	state.Reset()
	redirect(w, r, loginPath)
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	a.render(w, r, http.StatusNotFound, "not_found", a.page(w, r, state, struct{ Path string }{r.URL.Path}))
}
