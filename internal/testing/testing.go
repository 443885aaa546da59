// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
)

// MockClient is a test double for services.Client.
//
// Calls are recorded by operation name. Set the Err fields to make an operation fail.
// Login succeeds for any credentials unless LoginErr is set; the token is tracked in memory.
type MockClient struct {
	mu sync.Mutex

	Authenticated bool
	AccessToken   string
	Profile       *models.Profile
	Items         models.ContentList
	Upload        *models.UploadResult

	LoginErr  error
	SignupErr error
	ListErr   error
	GetErr    error
	UpdateErr error
	DeleteErr error
	UploadErr error
	SaveErr   error

	// GetHook, when set, runs before GetContent returns, e.g. to block on a channel.
	GetHook func(id models.ID)

	calls []string
	Saved []models.SavePayload
}

// NewMockClient creates a logged-out [MockClient] holding items.
func NewMockClient(items ...models.ContentItem) *MockClient {
	return &MockClient{Items: items}
}

func (m *MockClient) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

// Calls returns the recorded operation names in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Called reports whether op was invoked at least once.
func (m *MockClient) Called(op string) bool {
	return slices.Contains(m.Calls(), op)
}

func (m *MockClient) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Authenticated
}

// Token returns AccessToken while signed in.
func (m *MockClient) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Authenticated || m.AccessToken == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: m.AccessToken, TokenType: "Bearer"}, nil
}

func (m *MockClient) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	m.record("Login")
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Authenticated = true
	return m.Profile, nil
}

func (m *MockClient) Signup(ctx context.Context, name, email, password string) error {
	m.record("Signup")
	return m.SignupErr
}

func (m *MockClient) Logout(ctx context.Context) {
	m.record("Logout")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Authenticated = false
}

func (m *MockClient) GetUserContent(ctx context.Context) (models.ContentList, error) {
	m.record("GetUserContent")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Items), nil
}

func (m *MockClient) GetContent(ctx context.Context, id models.ID) (*models.ContentItem, error) {
	m.record("GetContent")
	if m.GetHook != nil {
		m.GetHook(id)
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.Items.Find(id)
	if !ok {
		return nil, errNotFound
	}
	return &item, nil
}

func (m *MockClient) UpdateContent(ctx context.Context, id models.ID, fields models.ContentFields) (*models.ContentItem, error) {
	m.record("UpdateContent")
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Items {
		if m.Items[i].ID != id {
			continue
		}
		item := &m.Items[i]
		if fields.Title != nil {
			item.Title = *fields.Title
		}
		if fields.Subject != nil {
			item.Subject = *fields.Subject
		}
		if fields.Grade != nil {
			item.Grade = *fields.Grade
		}
		if fields.ContentType != nil {
			item.ContentType = *fields.ContentType
		}
		if fields.Body != nil {
			item.Body = *fields.Body
		}
		updated := *item
		return &updated, nil
	}
	return nil, errNotFound
}

func (m *MockClient) DeleteContent(ctx context.Context, id models.ID) error {
	m.record("DeleteContent")
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items = m.Items.Remove(id)
	return nil
}

func (m *MockClient) UploadPDF(ctx context.Context, upload models.Upload) (*models.UploadResult, error) {
	m.record("UploadPDF")
	if m.UploadErr != nil {
		return nil, m.UploadErr
	}
	if m.Upload != nil {
		return m.Upload, nil
	}
	return &models.UploadResult{HTMLContent: "<h1>" + upload.FileName + "</h1>"}, nil
}

func (m *MockClient) SaveContent(ctx context.Context, payload models.SavePayload) (*models.ContentItem, error) {
	m.record("SaveContent")
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, payload)
	item := models.ContentItem{
		ID:          models.ID("saved-" + payload.Title),
		Title:       payload.Title,
		Subject:     payload.Subject,
		Grade:       payload.Grade,
		ContentType: payload.ContentType,
		Body:        payload.HTML,
	}
	m.Items = append(models.ContentList{item}, m.Items...)
	return &item, nil
}

var errNotFound = fmt.Errorf("%w: content not found", shared.ErrNotFound)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FReader fails every Read, for exercising upload paths.
type FReader struct{}

func (f *FReader) Read(p []byte) (int, error) {
	return 0, errors.New("read failed")
}

var _ io.Reader = (*FReader)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
