package ui

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/setsvm/novi/internal/loader"
	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/services"
	"github.com/setsvm/novi/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	ConfirmDeleteView
)

// Options configures a [Model].
type Options struct {
	WebURL string             // WebURL is the web front end that "open" points the browser at
	Open   func(string) error // Open defaults to [shared.OpenBrowser]
	Logger *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	api     services.Client
	details *loader.Loader[models.ID, *models.ContentItem]
	webURL  string
	open    func(string) error
	logger  *log.Logger

	width    int
	height   int
	list     list.Model
	items    models.ContentList
	selected models.ID
	detail   *models.ContentItem
	loadErr  error
	loading  bool
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model browsing the content visible to api.
func NewModel(ctx context.Context, api services.Client, opts Options) *Model {
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	l := list.New(nil, list.NewDefaultDelegate(), 80, 24)
	l.Title = "My Contents"
	l.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		view:    ListView,
		api:     api,
		details: loader.New[models.ID, *models.ContentItem](),
		webURL:  strings.TrimRight(opts.WebURL, "/"),
		open:    opts.Open,
		logger:  opts.Logger,
		list:    l,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's content.
func (m *Model) Init() tea.Cmd {
	return m.fetchContent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width/2, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgContentFetched:
		data := msg.data.(contentFetched)
		if data.err != nil {
			m.err = describe(data.err)
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("%d items", len(data.items))
		return m, m.setItems(data.items)

	case MsgDetailLoaded:
		data := msg.data.(detailLoaded)
		if !m.details.Commit(data.ticket, data.item, data.err) {
			m.logger.Debug("discarding stale detail", "id", data.ticket.Key)
			return m, nil
		}
		m.loading = false
		m.detail, m.loadErr = data.item, data.err
		if errors.Is(data.err, shared.ErrAuthentication) {
			m.err = describe(data.err)
		}
		return m, nil

	case MsgContentDeleted:
		data := msg.data.(contentDeleted)
		m.view = ListView
		if data.err != nil && !errors.Is(data.err, shared.ErrNotFound) {
			m.status = styles.err.Render(fmt.Sprintf("Delete failed: %v", data.err))
			return m, nil
		}
		m.status = styles.ok.Render("Deleted")
		return m, m.setItems(m.items.Remove(data.id))

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.err.Render(err.Error())
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if _, ok := m.current(); ok {
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if _, ok := m.current(); ok {
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		return m, m.openSelected()
	case key.Matches(msg, m.keys.reload):
		m.status = "Reloading..."
		return m, m.fetchContent()
	}

	return m.updateList(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
	case key.Matches(msg, m.keys.delete):
		m.view = ConfirmDeleteView
	case key.Matches(msg, m.keys.open):
		return m, m.openSelected()
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		item, ok := m.current()
		if !ok {
			m.view = ListView
			return m, nil
		}
		m.status = "Deleting..."
		return m, m.deleteContent(item.ID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = ListView
	}
	return m, nil
}

// updateList forwards msg to the list and loads details when the selection moved.
func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, tea.Batch(cmd, m.selectionChanged())
}

func (m *Model) setItems(items models.ContentList) tea.Cmd {
	m.items = items
	cmd := m.list.SetItems(listItems(items))
	return tea.Batch(cmd, m.selectionChanged())
}

func (m *Model) current() (models.ContentItem, bool) {
	selected, ok := m.list.SelectedItem().(contentItem)
	if !ok {
		return models.ContentItem{}, false
	}
	return selected.item, true
}

// selectionChanged starts a detail load when the selected item differs from the last one.
func (m *Model) selectionChanged() tea.Cmd {
	item, ok := m.current()
	if !ok {
		m.selected, m.detail, m.loadErr, m.loading = "", nil, nil, false
		m.details.Reset()
		return nil
	}
	if item.ID == m.selected {
		return nil
	}

	m.selected = item.ID
	m.detail, m.loadErr, m.loading = nil, nil, true

	ticket := m.details.Begin(item.ID)
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		detail, err := api.GetContent(ctx, ticket.Key)
		return detailLoadedMsg(ticket, detail, err)
	}
}

func (m *Model) fetchContent() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		items, err := api.GetUserContent(ctx)
		return contentFetchedMsg(items, err)
	}
}

func (m *Model) deleteContent(id models.ID) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		return contentDeletedMsg(id, api.DeleteContent(ctx, id))
	}
}

func (m *Model) openSelected() tea.Cmd {
	item, ok := m.current()
	if !ok || m.webURL == "" {
		return nil
	}
	target := m.webURL + "/content/" + url.PathEscape(item.ID.String())
	open := m.open
	return func() tea.Msg {
		return browserOpenedMsg(open(target))
	}
}

// describe turns a load failure into the message shown to the user.
func describe(err error) error {
	if errors.Is(err, shared.ErrAuthentication) {
		return fmt.Errorf("%w. Run `novi auth login` to sign in again", err)
	}
	return err
}

func (m *Model) renderList() string {
	paneWidth := max(m.width-m.list.Width()-6, 30)
	pane := styles.pane.Width(paneWidth).Render(m.renderSummary())

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), pane)
	helpKeys := []key.Binding{m.keys.enter, m.keys.delete, m.keys.open, m.keys.reload, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", body, m.status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSummary() string {
	switch {
	case m.selected == "":
		return styles.help.Render("No content yet")
	case m.loading:
		return styles.help.Render("Loading...")
	case m.loadErr != nil:
		return styles.err.Render(fmt.Sprintf("Failed to load: %v", m.loadErr))
	case m.detail == nil:
		return ""
	}

	d := m.detail
	lines := []string{
		styles.title.Render(d.Title),
		fmt.Sprintf("%s %s", styles.label.Render("Type:"), styles.badge(d.ContentType)),
		fmt.Sprintf("%s %s", styles.label.Render("Subject:"), d.Subject),
		fmt.Sprintf("%s %s", styles.label.Render("Grade:"), d.Grade),
	}
	if !d.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("%s %s", styles.label.Render("Created:"), d.CreatedAt.Format("Jan 2, 2006")))
	}
	lines = append(lines, "", truncate(PlainText(d.Body), 280))
	return strings.Join(lines, "\n")
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return fmt.Sprintf("%s\n\n%s", m.renderSummary(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	}

	width := max(m.width-4, 40)
	body := lipgloss.NewStyle().Width(width).Render(PlainText(m.detail.Body))

	helpKeys := []key.Binding{m.keys.back, m.keys.delete, m.keys.open, m.keys.quit}
	return fmt.Sprintf("%s\n%s %s • %s\n\n%s\n\n%s",
		styles.title.Render(m.detail.Title),
		styles.badge(m.detail.ContentType), m.detail.Subject, m.detail.Grade,
		body,
		m.help.ShortHelpView(helpKeys),
	)
}

func (m *Model) renderConfirm() string {
	item, _ := m.current()
	title := styles.warn.Render(fmt.Sprintf("Delete '%s'?", item.Title))
	info := "\nThis cannot be undone.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

var (
	hiddenElements = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)\s*>`)
	tags           = regexp.MustCompile(`(?s)<[^>]*>`)
)

// PlainText renders generated HTML as whitespace-normalized text for the terminal.
func PlainText(s string) string {
	s = hiddenElements.ReplaceAllString(s, " ")
	s = tags.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
