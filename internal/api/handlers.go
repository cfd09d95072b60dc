package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesplit/internal/refactorservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *refactorservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *refactorservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /notes.
//
//	@Summary	List indexed notes
//	@Tags		notes
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"
//	@Param		offset	query		int	false	"Page offset"
//	@Success	200		{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /notes/*.
//
//	@Summary	Get a single note by path
//	@Tags		notes
//	@Produce	json
//	@Param		path	path		string	true	"Note path"
//	@Success	200		{object}	NoteDetail
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.ReadNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Backlinks handles GET /backlinks.
//
//	@Summary	List the notes linking to a note
//	@Tags		notes
//	@Produce	json
//	@Param		target	query		string	true	"Target note path"
//	@Success	200		{object}	BacklinksResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'target' is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), target)
	if err != nil {
		writeServiceError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Target: target, Backlinks: bl})
}

// Extract handles POST /refactor/extract.
//
//	@Summary	Move a line range into a new note
//	@Tags		refactor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		ExtractRequest	true	"Line range"
//	@Success	200		{object}	RefactorResult
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/refactor/extract [post]
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	res, err := h.svc.ExtractSelection(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Split handles POST /refactor/split.
//
//	@Summary	Move the rest of a note into a new note
//	@Tags		refactor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		SplitRequest	true	"Split point"
//	@Success	200		{object}	RefactorResult
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/refactor/split [post]
func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	res, err := h.svc.SplitRemainder(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, "split", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Headings handles POST /refactor/headings.
//
//	@Summary	Move every heading block of a level into its own note
//	@Tags		refactor
//	@Accept		json
//	@Produce	json
//	@Param		body	body		HeadingSplitRequest	true	"Heading level"
//	@Success	200		{object}	RefactorResult
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/refactor/headings [post]
func (h *Handler) Headings(w http.ResponseWriter, r *http.Request) {
	var req HeadingSplitRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	res, err := h.svc.SplitByHeading(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, "split by heading", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Render handles POST /render.
//
//	@Summary	Render a template
//	@Tags		templates
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RenderRequest	true	"Template and values"
//	@Success	200		{object}	RenderResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	out, err := h.svc.Render(r.Context(), req.RenderRequest)
	if err != nil {
		writeServiceError(w, "render", err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Output: out})
}

// Metadata handles POST /metadata.
//
//	@Summary	Extract preamble metadata
//	@Tags		templates
//	@Accept		json
//	@Produce	json
//	@Param		body	body		MetadataRequest	true	"Note path or text"
//	@Success	200		{object}	MetadataResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/metadata [post]
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	md, err := h.svc.ExtractMetadata(r.Context(), req.Path, req.Text)
	if err != nil {
		writeServiceError(w, "metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, MetadataResponse{Metadata: md})
}

// History handles GET /history.
//
//	@Summary	List recent refactors
//	@Tags		refactor
//	@Produce	json
//	@Param		source	query		string	false	"Only refactors of this note"
//	@Param		limit	query		int		false	"Max entries"
//	@Success	200		{object}	HistoryResponse
//	@Security	BearerAuth
//	@Router		/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	recs, err := h.svc.History(r.Context(), q.Get("source"), limit)
	if err != nil {
		slog.Error("history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{History: recs})
}
