package services

import (
	"context"

	"github.com/setsvm/novi/internal/models"
)

// Client defines the operations the front end performs against the content API.
type Client interface {
	// IsAuthenticated reports whether a non-empty token is persisted. Never fails.
	IsAuthenticated() bool

	// Login exchanges credentials for a token and persists it.
	// Returns the account profile when the backend provides one, otherwise nil.
	Login(ctx context.Context, email, password string) (*models.Profile, error)

	// Signup registers a new account. It does not log in.
	Signup(ctx context.Context, name, email, password string) error

	// Logout clears the persisted token. Never fails.
	Logout(ctx context.Context)

	// GetUserContent lists the caller's content, newest first.
	GetUserContent(ctx context.Context) (models.ContentList, error)

	// GetContent retrieves one content item.
	GetContent(ctx context.Context, id models.ID) (*models.ContentItem, error)

	// UpdateContent applies a partial update and returns the updated item.
	UpdateContent(ctx context.Context, id models.ID, fields models.ContentFields) (*models.ContentItem, error)

	// DeleteContent removes a content item.
	DeleteContent(ctx context.Context, id models.ID) error

	// UploadPDF converts a PDF into HTML content.
	UploadPDF(ctx context.Context, upload models.Upload) (*models.UploadResult, error)

	// SaveContent stores a generated document and returns the created item.
	SaveContent(ctx context.Context, payload models.SavePayload) (*models.ContentItem, error)
}
