package forms

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/setsvm/novi/internal/models"
)

// LoginForm is submitted by the login page.
type LoginForm struct {
	Email    string `form:"email" validate:"required,mail"`
	Password string `form:"password" validate:"required,min=6"`
}

// SignupForm is submitted by the signup page.
type SignupForm struct {
	Name            string `form:"name" validate:"required"`
	Email           string `form:"email" validate:"required,mail"`
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

// CreateContentForm describes an uploaded PDF and its metadata.
type CreateContentForm struct {
	Subject     string `form:"subject" validate:"required"`
	Grade       string `form:"grade" validate:"required"`
	ContentType string `form:"content_type" validate:"required,contenttype"`
	FileName    string `form:"file" validate:"required,pdfname"`
	FileType    string `form:"file_type" validate:"omitempty,eq=application/pdf"`
	FileSize    int64  `form:"file_size" validate:"omitempty,ltefield=MaxSize"`
	MaxSize     int64  `form:"-" validate:"-"`
}

// SetFile records the uploaded file's name, size, and sniffed media type from its leading bytes.
func (f *CreateContentForm) SetFile(name string, size int64, head []byte) {
	f.FileName = name
	f.FileSize = size
	f.FileType = mimetype.Detect(head).String()
}

// Type returns the parsed content type. Only meaningful after a successful [Validate].
func (f *CreateContentForm) Type() models.ContentType {
	return models.ContentType(strings.ToLower(f.ContentType))
}

// EditContentForm is submitted by the content edit page.
type EditContentForm struct {
	Title       string `form:"title" validate:"required"`
	Subject     string `form:"subject" validate:"required"`
	Grade       string `form:"grade" validate:"required"`
	ContentType string `form:"content_type" validate:"required,contenttype"`
	Body        string `form:"body"`
}

// NewEditContentForm pre-fills the form from an item.
func NewEditContentForm(item *models.ContentItem) *EditContentForm {
	return &EditContentForm{
		Title:       item.Title,
		Subject:     item.Subject,
		Grade:       item.Grade,
		ContentType: string(item.ContentType),
		Body:        item.Body,
	}
}

// Fields converts the form into a full update.
func (f *EditContentForm) Fields() models.ContentFields {
	title := strings.TrimSpace(f.Title)
	subject := strings.TrimSpace(f.Subject)
	grade := strings.TrimSpace(f.Grade)
	ct := models.ContentType(f.ContentType)
	body := f.Body
	return models.ContentFields{
		Title:       &title,
		Subject:     &subject,
		Grade:       &grade,
		ContentType: &ct,
		Body:        &body,
	}
}
