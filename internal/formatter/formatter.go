// package formatter provides functions to export content lists to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
)

// Format names an export format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat validates a format name. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, CSV, Markdown, JSON:
		return f, nil
	case "md":
		return Markdown, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv, markdown, or json)", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case JSON:
		return ".json"
	default:
		return ".txt"
	}
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Export renders items in the given format.
func Export(items models.ContentList, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(items)
	case Markdown:
		return ExportToMarkdown(items, "My Contents")
	case JSON:
		return ExportToJSON(items)
	case Text:
		return ExportToText(items)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts a content list to CSV format with columns: ID, Title, Type, Subject, Grade, Created
func ExportToCSV(items models.ContentList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Type", "Subject", "Grade", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ID.String(),
			item.Title,
			string(item.ContentType),
			item.Subject,
			item.Grade,
			formatDate(item.CreatedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// escapeCell keeps a value from breaking a Markdown table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// ExportToMarkdown converts a content list to a Markdown table under the given heading
func ExportToMarkdown(items models.ContentList, heading string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))

	lessons, quizzes := 0, 0
	for _, item := range items {
		switch item.ContentType {
		case models.Lesson:
			lessons++
		case models.Quiz:
			quizzes++
		}
	}
	buf.WriteString(fmt.Sprintf("**Items**: %d (%d lessons, %d quizzes)\n\n", len(items), lessons, quizzes))

	if len(items) == 0 {
		buf.WriteString("_No content._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Title | Type | Subject | Grade | Created |\n")
	buf.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, item := range items {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			escapeCell(item.Title),
			item.ContentType.Label(),
			escapeCell(item.Subject),
			escapeCell(item.Grade),
			formatDate(item.CreatedAt),
		))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a content list to plain text format
func ExportToText(items models.ContentList) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Content: %d\n\n", len(items)))

	for i, item := range items {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s, %s", i+1, item.ContentType.Label(), item.Title, item.Subject, item.Grade))
		if d := formatDate(item.CreatedAt); d != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", d))
		}
		buf.WriteString(fmt.Sprintf("  #%s\n", item.ID))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a content list to indented JSON, bodies included
func ExportToJSON(items models.ContentList) ([]byte, error) {
	if items == nil {
		items = models.ContentList{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportDocument wraps an item's generated body in a standalone HTML document
func ExportDocument(item *models.ContentItem) []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(item.Title)))
	buf.WriteString(fmt.Sprintf("<meta name=\"subject\" content=\"%s\">\n", html.EscapeString(item.Subject)))
	buf.WriteString(fmt.Sprintf("<meta name=\"grade\" content=\"%s\">\n", html.EscapeString(item.Grade)))
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(item.Body)
	buf.WriteString("\n</body>\n</html>\n")
	return buf.Bytes()
}

// Slug turns a title into a file name stem, falling back to fallback when nothing remains.
func Slug(title, fallback string) string {
	s := slug.Make(title)
	if s == "" {
		return fallback
	}
	return s
}

// WriteExport writes items in format f to path.
//
// Defaults to my_contents{ext} as the filename.
func WriteExport(items models.ContentList, f Format, path string) (string, error) {
	if path == "" {
		path = "my_contents" + f.Extension()
	}

	data, err := Export(items, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// DocumentExportResult contains the paths of files created by WriteDocumentExport
type DocumentExportResult struct {
	DocumentFile string
	MetadataFile string
}

// WriteDocumentExport saves one item as {dir}/{slug}.html with a {dir}/{slug}.json metadata file.
//
// Defaults to the current directory; the slug comes from the title, or the item ID when the title has no usable characters.
func WriteDocumentExport(item *models.ContentItem, dir string) (*DocumentExportResult, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	base := filepath.Join(dir, Slug(item.Title, "content-"+item.ID.String()))

	docFile := base + ".html"
	if err := os.WriteFile(docFile, ExportDocument(item), 0644); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	meta := *item
	meta.Body = ""
	metadata, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metaFile := base + ".json"
	if err := os.WriteFile(metaFile, metadata, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &DocumentExportResult{DocumentFile: docFile, MetadataFile: metaFile}, nil
}
