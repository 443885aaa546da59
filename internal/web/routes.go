package web

import (
	"net/http"

	"github.com/setsvm/novi/internal/server"
)

// methods dispatches GET and POST of one route to separate handlers.
func methods(get, post http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			post(w, r)
			return
		}
		get(w, r)
	})
}

var getPost = []string{http.MethodGet, http.MethodPost}

func (a *App) routeTree() *server.Route {
	return &server.Route{
		Path:   "/",
		Layout: LayoutRoot,
		Children: []*server.Route{
			{
				Layout: LayoutPublic,
				Children: []*server.Route{
					{Name: "home", Path: "", Handler: http.HandlerFunc(a.home)},
					{Name: "home-alias", Path: "home", Handler: http.HandlerFunc(a.home)},
					{Name: "login", Path: "login", Methods: getPost, Handler: methods(a.loginForm, a.login)},
					{Name: "signup", Path: "signup", Methods: getPost, Handler: methods(a.signupForm, a.signup)},
				},
			},
			{Name: "logout", Path: "logout", Methods: []string{http.MethodPost}, Handler: http.HandlerFunc(a.logout)},
			{Name: "static", Path: "static/{path...}", Handler: staticHandler()},
			{Name: "preload", Path: "preload", Handler: http.HandlerFunc(a.preload)},
			{
				Guarded: true,
				Children: []*server.Route{
					{Name: "dashboard", Path: "dashboard", Handler: http.HandlerFunc(a.dashboard)},
					{
						Name:    "create-content",
						Path:    "create-content",
						Methods: getPost,
						Handler: methods(a.createForm, a.upload),
						Children: []*server.Route{
							{Name: "create-content-save", Path: "save", Methods: []string{http.MethodPost}, Handler: http.HandlerFunc(a.saveDraft)},
							{Name: "create-content-discard", Path: "discard", Methods: []string{http.MethodPost}, Handler: http.HandlerFunc(a.discardDraft)},
							{Name: "create-content-preview", Path: "preview", Handler: http.HandlerFunc(a.previewDraft)},
						},
					},
					{Name: "my-contents", Path: "my-contents", Handler: http.HandlerFunc(a.myContents)},
					{
						Name:    "content",
						Path:    "content/{contentId}",
						Handler: http.HandlerFunc(a.viewContent),
						Children: []*server.Route{
							{Name: "content-edit", Path: "edit", Methods: getPost, Handler: methods(a.editForm, a.editContent)},
							{Name: "content-delete", Path: "delete", Methods: []string{http.MethodPost}, Handler: http.HandlerFunc(a.deleteContent)},
							{Name: "content-frame", Path: "frame", Handler: http.HandlerFunc(a.contentFrame)},
						},
					},
				},
			},
		},
	}
}
