package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
	tu "github.com/setsvm/novi/internal/testing"
)

func testItems() []models.ContentItem {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return []models.ContentItem{
		{ID: "1", Title: "Fractions Basics", ContentType: models.Lesson, Subject: "Mathématiques", Grade: "Grade 5", Body: "<h1>Fractions</h1><p>Halves &amp; quarters</p>", CreatedAt: created},
		{ID: "2", Title: "Forces Quiz", ContentType: models.Quiz, Subject: "Physique et Chimie", Grade: "Grade 9", Body: "<p>Newton</p>", CreatedAt: created},
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds the resulting message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var next []tea.Cmd
		for _, c := range batch {
			next = append(next, run(t, m, c))
		}
		return tea.Batch(next...)
	}
	_, next := m.Update(msg)
	return next
}

func loaded(t *testing.T, api *tu.MockClient) *Model {
	t.Helper()
	m := NewModel(context.Background(), api, Options{WebURL: "http://localhost:3000/", Open: func(string) error { return nil }})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	next := run(t, m, m.Init())
	run(t, m, next)
	return m
}

func TestModelLoad(t *testing.T) {
	t.Run("Lists Content And Loads First Detail", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		m := loaded(t, api)

		if len(m.items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(m.items))
		}
		if m.detail == nil || m.detail.ID != "1" {
			t.Fatalf("expected details of first item, got %+v", m.detail)
		}
		if !strings.Contains(m.View(), "Fractions Basics") {
			t.Error("expected list in view")
		}
	})

	t.Run("Empty List", func(t *testing.T) {
		m := loaded(t, tu.NewMockClient())

		if m.selected != "" || m.detail != nil {
			t.Error("nothing should be selected")
		}
		if !strings.Contains(m.View(), "No content yet") {
			t.Error("expected empty message")
		}
	})

	t.Run("Expired Session", func(t *testing.T) {
		api := tu.NewMockClient()
		api.ListErr = fmt.Errorf("%w: token expired", shared.ErrAuthentication)
		m := loaded(t, api)

		if !errors.Is(m.err, shared.ErrAuthentication) {
			t.Fatalf("expected authentication error, got %v", m.err)
		}
		if !strings.Contains(m.View(), "novi auth login") {
			t.Error("expected sign-in hint")
		}
	})

	t.Run("Reload", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		m := loaded(t, api)

		_, cmd := m.Update(keyPress("r"))
		run(t, m, cmd)

		if got := len(api.Calls()); got < 3 || api.Calls()[len(api.Calls())-1] != "GetUserContent" {
			t.Errorf("expected a second list fetch, got %v", api.Calls())
		}
	})
}

func TestModelStaleDetail(t *testing.T) {
	api := tu.NewMockClient(testItems()...)
	m := NewModel(context.Background(), api, Options{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(contentFetchedMsg(testItems(), nil))
	first := m.selectionChanged()
	if first != nil {
		t.Fatal("selection already loading, no new load expected")
	}

	// Reset the selection so the first load is issued by a fresh change.
	m.selected = ""
	slow := m.selectionChanged()
	m.list.Select(1)
	fast := m.selectionChanged()
	if slow == nil || fast == nil {
		t.Fatal("expected two detail loads")
	}

	m.Update(fast())
	m.Update(slow())

	if m.detail == nil || m.detail.ID != "2" {
		t.Errorf("stale response replaced newer details: %+v", m.detail)
	}
	if m.details.Current().Key != "2" {
		t.Errorf("loader should track the latest key, got %v", m.details.Current().Key)
	}
}

func TestModelDelete(t *testing.T) {
	t.Run("Cancel", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		m := loaded(t, api)

		m.Update(keyPress("d"))
		if m.view != ConfirmDeleteView || !strings.Contains(m.View(), "Delete 'Fractions Basics'?") {
			t.Fatalf("expected confirmation, got view %d", m.view)
		}
		m.Update(keyPress("n"))

		if m.view != ListView || api.Called("DeleteContent") {
			t.Error("cancel must not delete")
		}
	})

	t.Run("Confirm", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		m := loaded(t, api)

		m.Update(keyPress("d"))
		_, cmd := m.Update(keyPress("y"))
		next := run(t, m, cmd)
		run(t, m, next)

		if !api.Called("DeleteContent") {
			t.Fatal("expected delete call")
		}
		if len(m.items) != 1 || m.items[0].ID != "2" {
			t.Errorf("expected item removed, got %+v", m.items)
		}
		if m.selected != "2" || m.detail == nil || m.detail.ID != "2" {
			t.Errorf("expected selection to move on, got %q", m.selected)
		}
	})

	t.Run("Already Gone", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		api.DeleteErr = fmt.Errorf("%w: missing", shared.ErrNotFound)
		m := loaded(t, api)

		m.Update(contentDeletedMsg("1", api.DeleteErr))
		if len(m.items) != 1 {
			t.Errorf("expected item dropped from the list, got %d", len(m.items))
		}
	})

	t.Run("Failure Keeps Item", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		m := loaded(t, api)

		m.Update(contentDeletedMsg("1", fmt.Errorf("%w: offline", shared.ErrTransport)))
		if len(m.items) != 2 || !strings.Contains(m.status, "Delete failed") {
			t.Errorf("expected items kept and failure shown, got %d %q", len(m.items), m.status)
		}
	})
}

func TestModelKeys(t *testing.T) {
	t.Run("Detail View", func(t *testing.T) {
		m := loaded(t, tu.NewMockClient(testItems()...))

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DetailView {
			t.Fatalf("expected detail view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Halves & quarters") {
			t.Error("expected plain-text body")
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView {
			t.Error("esc should return to the list")
		}
	})

	t.Run("Open In Browser", func(t *testing.T) {
		var opened string
		api := tu.NewMockClient(testItems()...)
		m := NewModel(context.Background(), api, Options{
			WebURL: "http://localhost:3000/",
			Open:   func(u string) error { opened = u; return nil },
		})
		run(t, m, run(t, m, m.Init()))

		_, cmd := m.Update(keyPress("o"))
		run(t, m, cmd)

		if opened != "http://localhost:3000/content/1" {
			t.Errorf("unexpected url %q", opened)
		}
	})

	t.Run("Open Failure", func(t *testing.T) {
		api := tu.NewMockClient(testItems()...)
		m := NewModel(context.Background(), api, Options{
			WebURL: "http://localhost:3000",
			Open:   func(string) error { return errors.New("no browser") },
		})
		run(t, m, run(t, m, m.Init()))

		_, cmd := m.Update(keyPress("o"))
		run(t, m, cmd)

		if !strings.Contains(m.status, "no browser") {
			t.Errorf("expected failure in status, got %q", m.status)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := loaded(t, tu.NewMockClient(testItems()...))

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<h1>Title</h1>\n<p>Body  text</p>", "Title Body text"},
		{"<p>a &lt; b &amp;&amp; c</p>", "a < b && c"},
		{"<style>p{color:red}</style><p>shown</p><script>alert(1)</script>", "shown"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := PlainText(tc.in); got != tc.want {
			t.Errorf("PlainText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
