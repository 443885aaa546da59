package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/setsvm/novi/internal/forms"
	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
)

const myContentsPath = "/my-contents"

type dashboardData struct {
	Stats  models.ContentStats
	Recent models.ContentList
}

type listData struct {
	Query string
	Items models.ContentList
}

type contentData struct {
	Item *models.ContentItem
}

type editData struct {
	ID    models.ID
	Form  *forms.EditContentForm
	Types []models.ContentType
}

type errorData struct {
	Heading   string
	Message   string
	BackURL   string
	BackLabel string
}

var contentTypes = []models.ContentType{models.Lesson, models.Quiz}

func contentPath(id models.ID) string {
	return "/content/" + url.PathEscape(id.String())
}

func (a *App) fetchList(state *ClientState) func(context.Context, string) (models.ContentList, error) {
	return func(ctx context.Context, _ string) (models.ContentList, error) {
		return state.API.GetUserContent(ctx)
	}
}

func (a *App) fetchContent(state *ClientState) func(context.Context, models.ID) (*models.ContentItem, error) {
	return func(ctx context.Context, id models.ID) (*models.ContentItem, error) {
		return state.API.GetContent(ctx, id)
	}
}

// loadList returns the client's content, reusing a preloaded list while it is fresh.
func (a *App) loadList(ctx context.Context, state *ClientState) (models.ContentList, error) {
	if items, ok := state.List.Fresh(listKey, a.cfg.PreloadStaleTime()); ok {
		return items, nil
	}
	items, _, err := state.List.Load(ctx, listKey, a.fetchList(state))
	return items, err
}

// loadContent returns one item, reusing a preloaded item while it is fresh.
// The returned item always belongs to id, even when a newer load superseded this one.
func (a *App) loadContent(ctx context.Context, state *ClientState, id models.ID) (*models.ContentItem, error) {
	if item, ok := state.Content.Fresh(id, a.cfg.PreloadStaleTime()); ok {
		return item, nil
	}
	item, _, err := state.Content.Load(ctx, id, a.fetchContent(state))
	return item, err
}

func (a *App) dashboard(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)

	items, err := a.loadList(r.Context(), state)
	if err != nil {
		if a.reauthenticate(w, r, state, err) {
			return
		}
		p := a.page(w, r, state, nil)
		p.Error = userMessage(err, "Failed to load your content.")
		a.render(w, r, statusFor(err), "dashboard", p)
		return
	}

	data := dashboardData{Stats: models.Summarize(items, a.now()), Recent: items.Recent(3)}
	a.render(w, r, http.StatusOK, "dashboard", a.page(w, r, state, data))
}

func (a *App) myContents(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	items, err := a.loadList(r.Context(), state)
	if err != nil {
		if a.reauthenticate(w, r, state, err) {
			return
		}
		p := a.page(w, r, state, listData{Query: query})
		p.Error = userMessage(err, "Failed to load your content.")
		a.render(w, r, statusFor(err), "my_contents", p)
		return
	}

	a.render(w, r, http.StatusOK, "my_contents", a.page(w, r, state, listData{Query: query, Items: items.Filter(query)}))
}

// contentError renders the error view for a failed content load.
func (a *App) contentError(w http.ResponseWriter, r *http.Request, state *ClientState, err error) {
	if a.reauthenticate(w, r, state, err) {
		return
	}
	data := errorData{
		Heading:   "Failed to load content",
		Message:   userMessage(err, "The content could not be loaded."),
		BackURL:   myContentsPath,
		BackLabel: "Back to My Contents",
	}
	if errors.Is(err, shared.ErrNotFound) {
		data.Heading = "Content not found"
		data.Message = "This content does not exist or you do not have access to it."
	}
	a.render(w, r, statusFor(err), "error", a.page(w, r, state, data))
}

func (a *App) viewContent(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	id := models.ID(r.PathValue("contentId"))

	item, err := a.loadContent(r.Context(), state, id)
	if err != nil {
		a.contentError(w, r, state, err)
		return
	}
	a.render(w, r, http.StatusOK, "content", a.page(w, r, state, contentData{Item: item}))
}

func (a *App) contentFrame(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	id := models.ID(r.PathValue("contentId"))

	item, err := a.loadContent(r.Context(), state, id)
	if err != nil {
		if errors.Is(err, shared.ErrAuthentication) {
			state.Auth.Invalidate(r.Context(), err)
			state.Reset()
		}
		http.Error(w, http.StatusText(statusFor(err)), statusFor(err))
		return
	}
	writeFrame(w, item.Body)
}

func (a *App) editForm(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	id := models.ID(r.PathValue("contentId"))

	item, err := a.loadContent(r.Context(), state, id)
	if err != nil {
		a.contentError(w, r, state, err)
		return
	}
	data := editData{ID: id, Form: forms.NewEditContentForm(item), Types: contentTypes}
	a.render(w, r, http.StatusOK, "content_edit", a.page(w, r, state, data))
}

func (a *App) editContent(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	id := models.ID(r.PathValue("contentId"))

	form := &forms.EditContentForm{
		Title:       r.PostFormValue("title"),
		Subject:     r.PostFormValue("subject"),
		Grade:       r.PostFormValue("grade"),
		ContentType: r.PostFormValue("content_type"),
		Body:        r.PostFormValue("body"),
	}
	p := a.page(w, r, state, editData{ID: id, Form: form, Types: contentTypes})

	if errs := forms.Validate(form); len(errs) > 0 {
		p.Errors = errs
		a.render(w, r, http.StatusUnprocessableEntity, "content_edit", p)
		return
	}

	if _, err := state.API.UpdateContent(r.Context(), id, form.Fields()); err != nil {
		if a.reauthenticate(w, r, state, err) {
			return
		}
		if errors.Is(err, shared.ErrNotFound) {
			a.contentError(w, r, state, err)
			return
		}
		p.Error = userMessage(err, "Failed to save changes.")
		a.render(w, r, statusFor(err), "content_edit", p)
		return
	}

	state.Content.Reset()
	state.List.Reset()
	a.flash(w, r, "Content updated successfully.")
	redirect(w, r, contentPath(id))
}

// deleteContent removes an item. Deleting an item that no longer exists counts as success.
func (a *App) deleteContent(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	id := models.ID(r.PathValue("contentId"))

	if err := state.API.DeleteContent(r.Context(), id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		if a.reauthenticate(w, r, state, err) {
			return
		}
		a.logger.Warn("delete failed", "client", state.ID, "id", id, "error", err)
		a.flash(w, r, userMessage(err, "Failed to delete content."))
		redirect(w, r, myContentsPath)
		return
	}

	state.Content.Reset()
	state.List.Reset()
	a.flash(w, r, "Content deleted.")
	redirect(w, r, myContentsPath)
}

// preload starts loading the data of the page at ?to= in the background. The response never
// waits for the load and never reports its outcome.
func (a *App) preload(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusNoContent)

	state := a.client(r)
	if !state.Auth.IsAuthenticated() {
		return
	}

	target, err := url.Parse(r.URL.Query().Get("to"))
	if err != nil || target.IsAbs() || target.Host != "" {
		return
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.RequestURI(), nil)
	if err != nil {
		return
	}

	ctx := context.WithoutCancel(r.Context())
	name, _, _ := a.router.Match(req)
	switch name {
	case "dashboard", "my-contents":
		state.List.Preload(ctx, listKey, a.fetchList(state))
	case "content", "content-edit":
		rest := strings.TrimPrefix(target.Path, "/content/")
		id, _, _ := strings.Cut(rest, "/")
		if raw, err := url.PathUnescape(id); err == nil && raw != "" {
			state.Content.Preload(ctx, models.ID(raw), a.fetchContent(state))
		}
	}
}
