package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ContentType enumerates the kinds of generated content.
type ContentType string

const (
	Lesson ContentType = "lesson"
	Quiz   ContentType = "quiz"
)

// ContentTypes lists every valid [ContentType] in display order.
var ContentTypes = []ContentType{Lesson, Quiz}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == Lesson || t == Quiz
}

// Label is the capitalized name used in listings.
func (t ContentType) Label() string {
	switch t {
	case Lesson:
		return "Lesson"
	case Quiz:
		return "Quiz"
	default:
		return string(t)
	}
}

// ParseContentType parses a case-insensitive content type name.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown content type %q", s)
	}
	return t, nil
}

// ID is a backend identifier. The API emits numeric ids; the front end treats them as opaque strings.
type ID string

// UnmarshalJSON accepts either a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// ContentItem is a generated lesson or quiz owned by the backend.
type ContentItem struct {
	ID          ID             `json:"id"`
	Title       string         `json:"title"`
	ContentType ContentType    `json:"content_type"`
	Subject     string         `json:"subject"`
	Grade       string         `json:"grade"`
	Body        string         `json:"body"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at,omitzero"`
}

// ContentFields is a partial update. Nil fields are left unchanged.
type ContentFields struct {
	Title       *string      `json:"title,omitempty"`
	Subject     *string      `json:"subject,omitempty"`
	Grade       *string      `json:"grade,omitempty"`
	ContentType *ContentType `json:"content_type,omitempty"`
	Body        *string      `json:"body,omitempty"`
}

// Empty reports whether no field is set.
func (f ContentFields) Empty() bool {
	return f.Title == nil && f.Subject == nil && f.Grade == nil && f.ContentType == nil && f.Body == nil
}

// SavePayload is a generated document submitted for storage.
type SavePayload struct {
	Title       string         `json:"title"`
	Subject     string         `json:"subject"`
	Grade       string         `json:"grade"`
	ContentType ContentType    `json:"content_type"`
	HTML        string         `json:"body"`
	Metadata    map[string]any `json:"metadata"`
}

// NewSavePayload derives a payload from an upload: the title is the file name without its .pdf extension.
func NewSavePayload(fileName, subject, grade string, contentType ContentType, html string, generatedAt time.Time) SavePayload {
	return SavePayload{
		Title:       TitleFromFileName(fileName),
		Subject:     subject,
		Grade:       grade,
		ContentType: contentType,
		HTML:        html,
		Metadata: map[string]any{
			"originalFileName": fileName,
			"generatedAt":      generatedAt.UTC().Format(time.RFC3339),
		},
	}
}

// TitleFromFileName strips a trailing, case-insensitive ".pdf".
func TitleFromFileName(name string) string {
	if len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".pdf") {
		return name[:len(name)-4]
	}
	return name
}

// Upload is a PDF submitted for conversion.
type Upload struct {
	FileName    string
	File        io.Reader
	Subject     string
	Grade       string
	ContentType ContentType
}

// UploadResult is the conversion output for an uploaded PDF.
type UploadResult struct {
	HTMLContent string `json:"htmlContent"`
}

// Subjects offered by the create-content form.
var Subjects = []string{
	"Mathématiques",
	"Physique et Chimie",
	"Sciences de la Vie et de la Terre",
	"Philosophie",
	"Français",
	"Arabe",
	"Anglais",
	"Histoire et Géographie",
	"Education Islamique",
}

// Grades offered by the create-content form, "Grade 1" through "Grade 12".
var Grades = func() []string {
	grades := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		grades = append(grades, "Grade "+strconv.Itoa(i))
	}
	return grades
}()

// ContentList is the in-memory list of a user's content, newest first.
type ContentList []ContentItem

// Filter returns the items whose title or subject contains term, case-insensitively.
// An empty term returns the list unchanged.
func (l ContentList) Filter(term string) ContentList {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return l
	}
	out := make(ContentList, 0, len(l))
	for _, item := range l {
		if strings.Contains(strings.ToLower(item.Title), term) || strings.Contains(strings.ToLower(item.Subject), term) {
			out = append(out, item)
		}
	}
	return out
}

// Remove returns the list without the item with the given id.
// Removing an id that is not present returns the list unchanged.
func (l ContentList) Remove(id ID) ContentList {
	i := slices.IndexFunc(l, func(item ContentItem) bool { return item.ID == id })
	if i < 0 {
		return l
	}
	out := make(ContentList, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

// Find returns the item with the given id.
func (l ContentList) Find(id ID) (ContentItem, bool) {
	for _, item := range l {
		if item.ID == id {
			return item, true
		}
	}
	return ContentItem{}, false
}

// Recent returns up to n items ordered by creation time, newest first.
func (l ContentList) Recent(n int) ContentList {
	sorted := slices.Clone(l)
	slices.SortStableFunc(sorted, func(a, b ContentItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ContentStats are the dashboard totals.
type ContentStats struct {
	Total    int
	Lessons  int
	Quizzes  int
	ThisWeek int
}

// Summarize counts items by type and those created within the seven days before now.
func Summarize(items ContentList, now time.Time) ContentStats {
	weekAgo := now.AddDate(0, 0, -7)
	stats := ContentStats{Total: len(items)}
	for _, item := range items {
		switch item.ContentType {
		case Lesson:
			stats.Lessons++
		case Quiz:
			stats.Quizzes++
		}
		if item.CreatedAt.After(weekAgo) {
			stats.ThisWeek++
		}
	}
	return stats
}
