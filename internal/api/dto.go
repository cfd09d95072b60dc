package api

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesplit/internal/models"
	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/refactorservice"
)

var mdPath = regexp.MustCompile(`\.md$`)

// ExtractRequest is the request body of POST /refactor/extract.
type ExtractRequest struct {
	Path      string `json:"path" example:"notes/source.md"`
	StartLine int    `json:"start_line" example:"4"`
	EndLine   int    `json:"end_line" example:"9"`
	Title     string `json:"title,omitempty" example:"Chapter one"`
	IfMatch   string `json:"if_match,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

// Validate validates the request.
func (r *ExtractRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, validation.Match(mdPath)),
		validation.Field(&r.StartLine, validation.Min(0)),
		validation.Field(&r.EndLine, validation.Min(r.StartLine)),
	)
}

func (r *ExtractRequest) toService() refactorservice.ExtractRequest {
	return refactorservice.ExtractRequest(*r)
}

// SplitRequest is the request body of POST /refactor/split.
type SplitRequest struct {
	Path    string `json:"path" example:"notes/source.md"`
	Line    int    `json:"line" example:"12"`
	Title   string `json:"title,omitempty"`
	IfMatch string `json:"if_match,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// Validate validates the request.
func (r *SplitRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, validation.Match(mdPath)),
		validation.Field(&r.Line, validation.Min(0)),
	)
}

func (r *SplitRequest) toService() refactorservice.SplitRequest {
	return refactorservice.SplitRequest(*r)
}

// HeadingSplitRequest is the request body of POST /refactor/headings.
type HeadingSplitRequest struct {
	Path    string `json:"path" example:"notes/source.md"`
	Level   int    `json:"level" example:"2"`
	IfMatch string `json:"if_match,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// Validate validates the request.
func (r *HeadingSplitRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, validation.Match(mdPath)),
		validation.Field(&r.Level, validation.Required, validation.Min(1), validation.Max(6)),
	)
}

func (r *HeadingSplitRequest) toService() refactorservice.HeadingSplitRequest {
	return refactorservice.HeadingSplitRequest(*r)
}

// RenderRequest is the request body of POST /render.
type RenderRequest struct {
	refactorservice.RenderRequest
}

// Validate validates the request.
func (r *RenderRequest) Validate() error {
	return validation.ValidateStruct(&r.RenderRequest,
		validation.Field(&r.RenderRequest.Path, validation.Match(mdPath)),
	)
}

// RenderResponse is the response of POST /render.
type RenderResponse struct {
	Output string `json:"output"`
}

// MetadataRequest is the request body of POST /metadata. Either Path or
// Text must be set.
type MetadataRequest struct {
	Path string `json:"path,omitempty"`
	Text string `json:"text,omitempty"`
}

// Validate validates the request.
func (r *MetadataRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Match(mdPath)),
		validation.Field(&r.Text, validation.When(r.Path == "", validation.Required.Error("text or path is required"))),
	)
}

// MetadataResponse is the response of POST /metadata.
type MetadataResponse struct {
	Metadata refactor.Metadata `json:"metadata"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = refactorservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = refactorservice.NoteListItem

// RefactorResult is the response of the refactor endpoints.
type RefactorResult = refactorservice.Result

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total" example:"42"`
}

// BacklinksResponse lists the notes linking to a target.
type BacklinksResponse struct {
	Target    string   `json:"target" example:"notes/hello.md"`
	Backlinks []string `json:"backlinks"`
}

// HistoryResponse lists recent refactors.
type HistoryResponse struct {
	History []models.RefactorRecord `json:"history"`
}
