package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"

	"github.com/setsvm/novi/internal/server"
	"github.com/setsvm/novi/internal/services"
	"github.com/setsvm/novi/internal/shared"
)

const (
	clientCookie = "novi_client"
	flashCookie  = "novi_flash"

	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

// Toucher records that a client was seen.
type Toucher interface {
	Touch(id, userAgent string) error
}

// AppOpts configures an [App].
type AppOpts struct {
	Config    shared.ServerConfig
	NewClient ClientFactory
	Storage   Scoper
	Clients   Toucher        // optional
	Sessions  sessions.Store // signs the client and flash cookies
	Logger    *log.Logger
	Now       func() time.Time
}

// App is the web front end.
type App struct {
	cfg      shared.ServerConfig
	sessions sessions.Store
	logger   *log.Logger
	now      func() time.Time

	registry *Registry
	renderer *Renderer
	router   *server.BasicRouter
	routes   []server.RouteInfo
}

// NewSessionStore creates the cookie store used for client identity and flashes.
func NewSessionStore(cfg shared.ServerConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 365,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// NewApp parses the templates and compiles the route tree.
func NewApp(opts AppOpts) (*App, error) {
	if opts.NewClient == nil || opts.Storage == nil {
		return nil, errors.New("web: a client factory and storage are required")
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sessions == nil {
		opts.Sessions = NewSessionStore(opts.Config)
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		logger:   opts.Logger,
		now:      opts.Now,
		registry: NewRegistry(opts.NewClient, opts.Storage, opts.Logger),
		renderer: renderer,
		router:   server.NewBasicRouter(),
	}
	a.registry.now = opts.Now

	var onSeen func(string, *http.Request)
	if opts.Clients != nil {
		onSeen = func(id string, r *http.Request) {
			if err := opts.Clients.Touch(id, r.UserAgent()); err != nil {
				a.logger.Warn("failed to record client", "client", id, "error", err)
			}
		}
	}

	a.router.Use(
		server.Recover(a.logger),
		server.Logging(a.logger),
		server.ClientIdentity(a.sessions, clientCookie, a.logger, onSeen),
	)

	a.routes, err = server.Compile(a.router, a.routeTree(), server.CompileOpts{
		Guard:    server.Guard(loginPath, a.authenticator),
		NotFound: http.HandlerFunc(a.notFound),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ServeHTTP implements [http.Handler].
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Routes returns the compiled routes.
func (a *App) Routes() []server.RouteInfo { return a.routes }

// Registry returns the per-client state registry.
func (a *App) Registry() *Registry { return a.registry }

// SweepIdle disposes idle clients every interval until ctx is done.
func (a *App) SweepIdle(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.registry.Sweep(maxIdle)
		}
	}
}

// client returns the state of the requesting client.
func (a *App) client(r *http.Request) *ClientState {
	id, ok := server.ClientIDFrom(r.Context())
	if !ok {
		// ClientIdentity runs before every handler.
		panic("web: request has no client id")
	}
	return a.registry.Get(id)
}

func (a *App) authenticator(r *http.Request) server.Authenticator {
	id, ok := server.ClientIDFrom(r.Context())
	if !ok {
		return nil
	}
	return a.registry.Get(id).Auth
}

// page builds the template data shared by every page.
func (a *App) page(w http.ResponseWriter, r *http.Request, state *ClientState, data any) Page {
	return Page{
		Session: state.Auth.Session(),
		Flashes: a.takeFlashes(w, r),
		Data:    data,
		Year:    a.now().Year(),
	}
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	if err := a.renderer.Render(w, r, status, name, p); err != nil {
		a.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (a *App) flash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, err := a.sessions.Get(r, flashCookie)
	if err != nil && sess == nil {
		a.logger.Warn("failed to open flash cookie", "error", err)
		return
	}
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		a.logger.Warn("failed to save flash", "error", err)
	}
}

func (a *App) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	sess, err := a.sessions.Get(r, flashCookie)
	if err != nil || sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		a.logger.Warn("failed to clear flashes", "error", err)
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// reauthenticate handles an authentication failure from an API call: the client is signed
// out and sent to the login page. It reports whether err was such a failure.
func (a *App) reauthenticate(w http.ResponseWriter, r *http.Request, state *ClientState, err error) bool {
	if !errors.Is(err, shared.ErrAuthentication) {
		return false
	}
	state.Auth.Invalidate(r.Context(), err)
	state.Reset()

	next := ""
	if r.Method == http.MethodGet {
		next = r.URL.RequestURI()
	}
	redirect(w, r, server.LoginRedirect(loginPath, next))
	return true
}

// statusFor maps an API failure to a response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// userMessage returns the backend's message for err, or fallback.
func userMessage(err error, fallback string) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status != 0 && apiErr.Status < 500 {
		return apiErr.Message
	}
	if errors.Is(err, shared.ErrTransport) {
		return "Unable to reach the server. Please try again."
	}
	return fallback
}
