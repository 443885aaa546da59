package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
)

const (
	opLogin  = "login"
	opSignup = "signup"
	opList   = "list content"
	opGet    = "get content"
	opUpdate = "update content"
	opDelete = "delete content"
	opUpload = "upload pdf"
	opSave   = "save content"
)

// Gateway routes.
const (
	loginPath   = "/api/auth/login/"
	signupPath  = "/api/auth/signup/"
	contentPath = "/api/content/"
	uploadPath  = "/api/pdf/upload"
)

// APIClient implements [Client] for one client scope. It owns the [storage.KeyToken] slot.
type APIClient struct {
	api    *APIService
	store  storage.Storage
	logger *log.Logger
}

var _ Client = (*APIClient)(nil)

// loginResponse is the gateway's token pair with the optional account record.
type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    *models.Profile `json:"user"`
}

// signupRequest registers the account with its email as the username.
type signupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
}

// Token returns the persisted token, or nil when there is none.
func (c *APIClient) Token() (*oauth2.Token, error) {
	raw, ok, err := c.store.Get(storage.KeyToken)
	if err != nil || !ok || raw == "" {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("%w: corrupt token record: %v", shared.ErrStorage, err)
	}
	if token.AccessToken == "" {
		return nil, nil
	}
	return &token, nil
}

func (c *APIClient) IsAuthenticated() bool {
	token, err := c.Token()
	if err != nil {
		c.logger.Warn("failed to read token", "error", err)
		return false
	}
	return token != nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	req, err := jsonRequest(opLogin, http.MethodPost, loginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := c.api.call(ctx, req, &resp); err != nil {
		return nil, err
	}

	if resp.Access == "" {
		return nil, &APIError{Op: opLogin, Message: "no access token in response", Kind: shared.ErrAuthentication}
	}

	token := &oauth2.Token{AccessToken: resp.Access, RefreshToken: resp.Refresh, TokenType: "Bearer"}
	data, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}
	if err := c.store.Set(storage.KeyToken, string(data)); err != nil {
		return nil, err
	}

	if resp.User != nil {
		return resp.User, nil
	}
	return ProfileFromToken(resp.Access), nil
}

func (c *APIClient) Signup(ctx context.Context, name, email, password string) error {
	req, err := jsonRequest(opSignup, http.MethodPost, signupPath, signupRequest{
		Username:  email,
		Email:     email,
		Password:  password,
		FirstName: name,
	})
	if err != nil {
		return err
	}
	return c.api.call(ctx, req, nil)
}

func (c *APIClient) Logout(ctx context.Context) {
	if err := c.store.Remove(storage.KeyToken); err != nil {
		c.logger.Error("failed to clear token", "error", err)
	}
}

// authorize attaches the persisted token to req.
func (c *APIClient) authorize(req *apiRequest) error {
	token, err := c.Token()
	if err != nil {
		return &APIError{Op: req.op, Message: "failed to read token", Kind: shared.ErrAuthentication, Err: err}
	}
	if token == nil {
		return &APIError{Op: req.op, Message: "not logged in", Kind: shared.ErrAuthentication, Err: shared.ErrNotAuthenticated}
	}
	req.token = token
	return nil
}

func (c *APIClient) authedCall(ctx context.Context, req apiRequest, result any) error {
	if err := c.authorize(&req); err != nil {
		return err
	}
	return c.api.call(ctx, req, result)
}

func contentItemPath(id models.ID) string {
	return contentPath + url.PathEscape(string(id)) + "/"
}

func (c *APIClient) GetUserContent(ctx context.Context) (models.ContentList, error) {
	var raw json.RawMessage
	if err := c.authedCall(ctx, apiRequest{op: opList, method: http.MethodGet, path: contentPath}, &raw); err != nil {
		return nil, err
	}

	items, err := decodeContentList(raw)
	if err != nil {
		return nil, &APIError{Op: opList, Status: http.StatusOK, Message: "failed to decode response", Kind: shared.ErrTransport, Err: err}
	}
	return items, nil
}

// decodeContentList accepts a bare array or a paginated {"results": [...]} envelope.
func decodeContentList(raw json.RawMessage) (models.ContentList, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.ContentList{}, nil
	}

	if raw[0] == '{' {
		var page struct {
			Results models.ContentList `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, err
		}
		if page.Results == nil {
			page.Results = models.ContentList{}
		}
		return page.Results, nil
	}

	items := models.ContentList{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *APIClient) GetContent(ctx context.Context, id models.ID) (*models.ContentItem, error) {
	if id == "" {
		return nil, &APIError{Op: opGet, Message: "content id is required", Kind: shared.ErrNotFound}
	}

	var item models.ContentItem
	if err := c.authedCall(ctx, apiRequest{op: opGet, method: http.MethodGet, path: contentItemPath(id)}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *APIClient) UpdateContent(ctx context.Context, id models.ID, fields models.ContentFields) (*models.ContentItem, error) {
	if fields.Empty() {
		return nil, &APIError{Op: opUpdate, Message: "nothing to update", Kind: shared.ErrValidation}
	}

	req, err := jsonRequest(opUpdate, http.MethodPatch, contentItemPath(id), fields)
	if err != nil {
		return nil, err
	}

	var item models.ContentItem
	if err := c.authedCall(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *APIClient) DeleteContent(ctx context.Context, id models.ID) error {
	return c.authedCall(ctx, apiRequest{op: opDelete, method: http.MethodDelete, path: contentItemPath(id)}, nil)
}

// uploadResponse tolerates both the gateway's htmlContent field and a bare html field.
type uploadResponse struct {
	HTMLContent string `json:"htmlContent"`
	HTML        string `json:"html"`
}

func (c *APIClient) UploadPDF(ctx context.Context, upload models.Upload) (*models.UploadResult, error) {
	if upload.File == nil || upload.FileName == "" {
		return nil, &APIError{Op: opUpload, Message: "a PDF file is required", Kind: shared.ErrValidation}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", upload.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, upload.File); err != nil {
		return nil, &APIError{Op: opUpload, Message: "failed to read file", Kind: shared.ErrValidation, Err: err}
	}

	for field, value := range map[string]string{
		"subject":      upload.Subject,
		"grade":        upload.Grade,
		"content_type": string(upload.ContentType),
	} {
		if err := mw.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req := apiRequest{
		op:          opUpload,
		method:      http.MethodPost,
		path:        uploadPath,
		body:        &buf,
		contentType: mw.FormDataContentType(),
		upload:      true,
	}

	var resp uploadResponse
	if err := c.authedCall(ctx, req, &resp); err != nil {
		return nil, err
	}

	html := resp.HTMLContent
	if html == "" {
		html = resp.HTML
	}
	if strings.TrimSpace(html) == "" {
		return nil, &APIError{Op: opUpload, Status: http.StatusOK, Message: "conversion produced no content", Kind: shared.ErrTransport}
	}
	return &models.UploadResult{HTMLContent: html}, nil
}

func (c *APIClient) SaveContent(ctx context.Context, payload models.SavePayload) (*models.ContentItem, error) {
	req, err := jsonRequest(opSave, http.MethodPost, contentPath, payload)
	if err != nil {
		return nil, err
	}

	var item models.ContentItem
	if err := c.authedCall(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
