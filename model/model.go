package model

import (
	"io"
	"time"
)

type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusArchived  FormStatus = "archived"
)

// AnonymousUser is the submitter id recorded when a respondent is not
// authenticated.
const AnonymousUser = "anonymous"

type Form struct {
	ID            string     `json:"id,omitempty"`
	Version       int        `json:"version,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        FormStatus `json:"status"`
	Fields        []Field    `json:"fields"`
	Settings      Settings   `json:"settings"`
	Theme         Theme      `json:"theme"`
	ResponseCount int        `json:"responseCount"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt,omitempty"`
}

type Settings struct {
	SubmitButtonText       string `json:"submitButtonText,omitempty"`
	ConfirmationMessage    string `json:"confirmationMessage,omitempty"`
	MaxSubmissions         int    `json:"maxSubmissions,omitempty"`
	AllowMultipleResponses bool   `json:"allowMultipleResponses"`
	RequireAuth            bool   `json:"requireAuth"`
}

type Theme struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty"`
	Font            string `json:"font,omitempty"`
}

type Field struct {
	ID          string      `json:"id"`
	Type        FieldType   `json:"type"`
	Label       string      `json:"label"`
	Required    bool        `json:"required"`
	Placeholder string      `json:"placeholder,omitempty"`
	HelpText    string      `json:"helpText,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Validation  *Validation `json:"validation,omitempty"`

	// type-specific extras
	MaxRating    int      `json:"maxRating,omitempty"`
	Rows         int      `json:"rows,omitempty"`
	MaxSize      int64    `json:"maxSize,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	Text         string   `json:"text,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// Validation carries the optional per-field rule set. Pointer members
// distinguish "not configured" from a configured zero.
type Validation struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MinLength    *int     `json:"minLength,omitempty"`
	MaxLength    *int     `json:"maxLength,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

type Response struct {
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	UserID      string         `json:"userId"`
	Answers     map[string]any `json:"answers"`
	Metadata    Metadata       `json:"metadata"`
	SubmittedAt string         `json:"submittedAt"`
	Status      string         `json:"status"`
}

type Metadata struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// UploadedFile is the descriptor returned by the file-storage collaborator
// and stored verbatim inside Response.Answers.
type UploadedFile struct {
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	FileType     string `json:"fileType"`
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
	Format       string `json:"format,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	UploadedAt   string `json:"uploadedAt"`
}

// FileHandle is a not-yet-uploaded file attached to a submission answer.
// Whoever consumes Content closes it.
type FileHandle struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.ReadCloser
}

type undefinedValue struct{}

// Undefined marks a value that must not reach the store. The response
// assembler strips it at any depth; a nil (JSON null) is kept and means
// "explicitly empty".
var Undefined any = undefinedValue{}

// IsEmptyAnswer reports whether a raw answer counts as "no value" for
// required checks: absent, undefined, empty string, or an empty array.
func IsEmptyAnswer(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case undefinedValue:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// FieldByID returns the field with the given id, in O(n); forms are small.
func (f *Form) FieldByID(id string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.ID == id {
			return fld, true
		}
	}
	return Field{}, false
}

// Accepting reports whether the form may receive submissions.
func (f *Form) Accepting() bool {
	return f.Status == StatusPublished
}
