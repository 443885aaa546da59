package server

import (
	"net/http"
	"net/url"
	"strings"
)

// Authenticator reports whether the current client is signed in.
type Authenticator interface {
	IsAuthenticated() bool
}

// Guard gates a handler behind authentication.
//
// lookup resolves the requesting client's [Authenticator]; it is consulted on every request.
// When it is nil or not authenticated, the visitor is sent to loginPath with the original
// path in "next" and the wrapped handler never runs.
func Guard(loginPath string, lookup func(*http.Request) Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a := lookup(r); a != nil && a.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, LoginRedirect(loginPath, r.URL.RequestURI()), http.StatusSeeOther)
		})
	}
}

// LoginRedirect builds the login URL that returns to target afterwards.
func LoginRedirect(loginPath, target string) string {
	if target == "" || target == "/" {
		return loginPath
	}
	return loginPath + "?next=" + url.QueryEscape(target)
}

// SafeNext returns target when it is a local absolute path, otherwise fallback.
// Protocol-relative and absolute URLs are rejected so "next" cannot leave the site.
func SafeNext(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return target
}
