package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/setsvm/novi/internal/formatter"
	"github.com/setsvm/novi/internal/forms"
	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/ui"
)

// sniffLen is how much of a file is read to detect its media type.
const sniffLen = 3072

// ContentList prints the signed-in user's content, optionally filtered.
func (r *Runner) ContentList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	w, err := r.signedIn(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	items, err := w.API.GetUserContent(ctx)
	if err != nil {
		return w.check(ctx, fmt.Errorf("failed to list content: %w", err))
	}
	items = items.Filter(cmd.String("search"))
	r.logger.Debug("listed content", "count", len(items), "format", format)

	if out := cmd.String("output"); out != "" {
		path, err := formatter.WriteExport(items, format, out)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d item(s) to %s\n", len(items), path)
	}

	data, err := formatter.Export(items, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// ContentShow prints one item's metadata and text, or exports it with --output.
func (r *Runner) ContentShow(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(strings.TrimSpace(cmd.String("id")))

	w, err := r.signedIn(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	item, err := w.API.GetContent(ctx, id)
	if err != nil {
		return w.check(ctx, fmt.Errorf("failed to load content %s: %w", id, err))
	}

	if dir := cmd.String("output"); dir != "" {
		result, err := formatter.WriteDocumentExport(item, dir)
		if err != nil {
			return err
		}
		r.writePlain("✓ Document: %s\n", result.DocumentFile)
		return r.writePlain("✓ Metadata: %s\n", result.MetadataFile)
	}

	r.writePlainHeader(item.Title)
	r.writePlain("Type:    %s\n", item.ContentType.Label())
	r.writePlain("Subject: %s\n", item.Subject)
	r.writePlain("Grade:   %s\n", item.Grade)
	if !item.CreatedAt.IsZero() {
		r.writePlain("Created: %s\n", item.CreatedAt.Format("Jan 2, 2006"))
	}
	return r.writePlainln("%s", ui.PlainText(item.Body))
}

// ContentDelete removes an item. Deleting an item that is already gone succeeds.
func (r *Runner) ContentDelete(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(strings.TrimSpace(cmd.String("id")))

	w, err := r.signedIn(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.API.DeleteContent(ctx, id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		r.logger.Debug("content already gone", "id", id, "error", err)
		return r.writePlain("✓ Content %s no longer exists\n", id)
	case err != nil:
		return w.check(ctx, fmt.Errorf("failed to delete content %s: %w", id, err))
	}
	return r.writePlain("✓ Deleted content %s\n", id)
}

// ContentCreate uploads a PDF for conversion, then saves the result or writes the generated HTML.
func (r *Runner) ContentCreate(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	form := &forms.CreateContentForm{
		Subject:     strings.TrimSpace(cmd.String("subject")),
		Grade:       strings.TrimSpace(cmd.String("grade")),
		ContentType: cmd.String("type"),
		MaxSize:     config.Server.MaxUploadBytes(),
	}
	form.SetFile(filepath.Base(path), info.Size(), head[:n])
	if err := forms.Validate(form).Err(); err != nil {
		return err
	}

	w, err := r.signedIn(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	r.logger.Info("uploading PDF", "file", form.FileName, "size", info.Size())

	result, err := w.API.UploadPDF(ctx, models.Upload{
		FileName:    form.FileName,
		File:        f,
		Subject:     form.Subject,
		Grade:       form.Grade,
		ContentType: form.Type(),
	})
	if err != nil {
		return w.check(ctx, fmt.Errorf("failed to generate content: %w", err))
	}

	if cmd.Bool("save") {
		payload := models.NewSavePayload(form.FileName, form.Subject, form.Grade, form.Type(), result.HTMLContent, r.now())
		item, err := w.API.SaveContent(ctx, payload)
		if err != nil {
			return w.check(ctx, fmt.Errorf("failed to save content: %w", err))
		}
		return r.writePlain("✓ Saved %q as content %s\n", item.Title, item.ID)
	}

	if out := cmd.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(result.HTMLContent), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		return r.writePlain("✓ Generated HTML written to %s\n", out)
	}

	return r.writePlain("%s\n", result.HTMLContent)
}
