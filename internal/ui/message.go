package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/setsvm/novi/internal/loader"
	"github.com/setsvm/novi/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgContentFetched MsgKind = iota
	MsgDetailLoaded
	MsgContentDeleted
	MsgBrowserOpened
)

type contentFetched struct {
	items models.ContentList
	err   error
}

type detailLoaded struct {
	ticket loader.Ticket[models.ID]
	item   *models.ContentItem
	err    error
}

type contentDeleted struct {
	id  models.ID
	err error
}

// contentFetchedMsg is the constructor for [MsgContentFetched]
func contentFetchedMsg(items models.ContentList, err error) Msg {
	return Msg{kind: MsgContentFetched, data: contentFetched{items, err}}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(ticket loader.Ticket[models.ID], item *models.ContentItem, err error) Msg {
	return Msg{kind: MsgDetailLoaded, data: detailLoaded{ticket, item, err}}
}

// contentDeletedMsg is the constructor for [MsgContentDeleted]
func contentDeletedMsg(id models.ID, err error) Msg {
	return Msg{kind: MsgContentDeleted, data: contentDeleted{id, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
