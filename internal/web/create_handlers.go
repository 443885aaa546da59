package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/setsvm/novi/internal/forms"
	"github.com/setsvm/novi/internal/models"
)

const createPath = "/create-content"

// sniffLen is how much of an upload is read to detect its media type.
const sniffLen = 3072

type createData struct {
	Form        *forms.CreateContentForm
	Draft       *Draft
	Subjects    []string
	Grades      []string
	Types       []models.ContentType
	MaxUploadMB int
}

func (a *App) createData(form *forms.CreateContentForm, draft *Draft) createData {
	if form == nil {
		form = &forms.CreateContentForm{}
	}
	return createData{
		Form:        form,
		Draft:       draft,
		Subjects:    models.Subjects,
		Grades:      models.Grades,
		Types:       contentTypes,
		MaxUploadMB: a.cfg.MaxUploadMB,
	}
}

func (a *App) createForm(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	a.render(w, r, http.StatusOK, "create_content", a.page(w, r, state, a.createData(nil, state.Draft())))
}

// upload converts the submitted PDF and keeps the result as the client's draft.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	limit := a.cfg.MaxUploadBytes()

	// Leave room for the other fields so an oversized file is reported by validation.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	parseErr := r.ParseMultipartForm(32 << 20)

	form := &forms.CreateContentForm{
		Subject:     r.PostFormValue("subject"),
		Grade:       r.PostFormValue("grade"),
		ContentType: r.PostFormValue("content_type"),
		MaxSize:     limit,
	}
	p := a.page(w, r, state, a.createData(form, nil))

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(parseErr, &tooLarge):
		p.Errors = forms.FieldErrors{"file_size": "The file is too large"}
		a.render(w, r, http.StatusRequestEntityTooLarge, "create_content", p)
		return
	case parseErr != nil && !errors.Is(parseErr, http.ErrNotMultipart):
		a.logger.Warn("failed to parse upload", "client", state.ID, "error", parseErr)
		p.Error = "The upload could not be read. Please try again."
		a.render(w, r, http.StatusBadRequest, "create_content", p)
		return
	}

	var file multipart.File
	if f, header, err := r.FormFile("file"); err == nil {
		defer f.Close()
		head := make([]byte, sniffLen)
		n, _ := io.ReadFull(f, head)
		form.SetFile(header.Filename, header.Size, head[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			p.Error = "The upload could not be read. Please try again."
			a.render(w, r, http.StatusBadRequest, "create_content", p)
			return
		}
		file = f
	}

	if errs := forms.Validate(form); len(errs) > 0 {
		p.Errors = errs
		a.render(w, r, http.StatusUnprocessableEntity, "create_content", p)
		return
	}

	result, err := state.API.UploadPDF(r.Context(), models.Upload{
		FileName:    form.FileName,
		File:        file,
		Subject:     form.Subject,
		Grade:       form.Grade,
		ContentType: form.Type(),
	})
	if err != nil {
		if a.reauthenticate(w, r, state, err) {
			return
		}
		a.logger.Warn("upload failed", "client", state.ID, "file", form.FileName, "error", err)
		p.Error = userMessage(err, "Failed to generate content. Please try again.")
		a.render(w, r, statusFor(err), "create_content", p)
		return
	}

	state.SetDraft(&Draft{
		FileName:    form.FileName,
		Title:       models.TitleFromFileName(form.FileName),
		Subject:     form.Subject,
		Grade:       form.Grade,
		ContentType: form.Type(),
		HTML:        result.HTMLContent,
		GeneratedAt: a.now(),
	})
	redirect(w, r, createPath)
}

func (a *App) saveDraft(w http.ResponseWriter, r *http.Request) {
	state := a.client(r)
	draft := state.Draft()
	if draft == nil {
		redirect(w, r, createPath)
		return
	}

	if _, err := state.API.SaveContent(r.Context(), draft.Payload()); err != nil {
		if a.reauthenticate(w, r, state, err) {
			return
		}
		a.logger.Warn("save failed", "client", state.ID, "title", draft.Title, "error", err)
		p := a.page(w, r, state, a.createData(nil, draft))
		p.Error = userMessage(err, "Failed to save content. Please try again.")
		a.render(w, r, statusFor(err), "create_content", p)
		return
	}

	state.SetDraft(nil)
	state.List.Reset()
	a.flash(w, r, "Content saved successfully.")
	redirect(w, r, myContentsPath)
}

func (a *App) discardDraft(w http.ResponseWriter, r *http.Request) {
	a.client(r).SetDraft(nil)
	redirect(w, r, createPath)
}

func (a *App) previewDraft(w http.ResponseWriter, r *http.Request) {
	draft := a.client(r).Draft()
	if draft == nil {
		http.NotFound(w, r)
		return
	}
	writeFrame(w, draft.HTML)
}
