package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesplit/internal/index"
	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/refactorservice"
	"github.com/starford/notesplit/internal/storage"
	"github.com/starford/notesplit/internal/testutil"
)

const sourceNote = "Author: Ann\n***\n# Intro\ntext\n## Part\nbody\n## Last\nend"

type env struct {
	router http.Handler
	vault  string
}

// testEnv sets up a vault holding source.md, an indexed SQLite DB, the
// service and the router. A non-empty token enables auth.
func testEnv(t *testing.T, token string) *env {
	t.Helper()
	return testEnvWithSSE(t, token, nil)
}

func testEnvWithSSE(t *testing.T, token string, sseHandler http.Handler) *env {
	t.Helper()
	vault, store := testutil.TestVault(t, map[string]string{
		"source.md": sourceNote,
		"other.md":  "# Other\nsee [[source]]",
	})
	db := testutil.TestDB(t)
	require.NoError(t, index.Sync(db, store, testutil.Logger()))
	svc := refactorservice.New(store, db, refactor.DefaultSettings(), refactorservice.WithClock(testutil.Clock))
	return &env{router: NewRouter(svc, token != "", token, sseHandler), vault: vault}
}

func (e *env) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestGetNote(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/notes/source.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	note := decode[NoteDetail](t, w)
	assert.Equal(t, "Intro", note.Title)
	assert.Equal(t, sourceNote, note.Content)
	assert.Equal(t, []string{"other.md"}, note.Backlinks)
	author, _ := note.Props.Get("Author")
	assert.Equal(t, "Ann", author)
}

func TestGetNote_NotFound(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/notes/nope.md", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNotes(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/notes?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[NoteListResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Notes, 1)
	assert.Equal(t, "other.md", resp.Notes[0].Path)
}

func TestBacklinks(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/backlinks?target=source.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[BacklinksResponse](t, w)
	assert.Equal(t, []string{"other.md"}, resp.Backlinks)

	w = e.do(t, http.MethodGet, "/backlinks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing target")
}

func TestExtract(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/refactor/extract", map[string]any{"path": "source.md", "start_line": 4, "end_line": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[RefactorResult](t, w)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, "Part.md", res.Notes[0].Path)
	assert.Equal(t, "Author: Ann\n***\n# Intro\ntext\n[[Part]]\n## Last\nend", testutil.ReadFile(t, e.vault, "source.md"))

	w = e.do(t, http.MethodGet, "/history?source=source.md", nil)
	hist := decode[HistoryResponse](t, w)
	require.Len(t, hist.History, 1)
	assert.Equal(t, "Part.md", hist.History[0].Target)
}

func TestExtract_Validation(t *testing.T) {
	e := testEnv(t, "")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing path", map[string]any{"start_line": 0, "end_line": 1}, http.StatusBadRequest},
		{"not markdown", map[string]any{"path": "a.txt", "end_line": 1}, http.StatusBadRequest},
		{"negative start", map[string]any{"path": "source.md", "start_line": -1, "end_line": 1}, http.StatusBadRequest},
		{"end before start", map[string]any{"path": "source.md", "start_line": 3, "end_line": 1}, http.StatusBadRequest},
		{"past end of note", map[string]any{"path": "source.md", "start_line": 3, "end_line": 50}, http.StatusUnprocessableEntity},
		{"unknown note", map[string]any{"path": "ghost.md", "end_line": 1}, http.StatusNotFound},
		{"stale checksum", map[string]any{"path": "source.md", "end_line": 1, "if_match": "stale"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/refactor/extract", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/refactor/extract", strings.NewReader("{"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "malformed body")
}

func TestSplitDryRun(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/refactor/split", map[string]any{"path": "source.md", "line": 6, "dry_run": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[RefactorResult](t, w)
	assert.True(t, res.DryRun)
	assert.Equal(t, "Author: Ann\n***\n# Intro\ntext\n## Part\nbody\n[[Last]]", res.Content)
	assert.Equal(t, sourceNote, testutil.ReadFile(t, e.vault, "source.md"), "dry run modified source")
}

func TestHeadings(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/refactor/headings", map[string]any{"path": "source.md", "level": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[RefactorResult](t, w)
	require.Len(t, res.Notes, 2)
	assert.Equal(t, "## Last\nend", testutil.ReadFile(t, e.vault, "Last.md"))

	w = e.do(t, http.MethodPost, "/refactor/headings", map[string]any{"path": "source.md", "level": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code, "bad level")
}

func TestRender(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/render", map[string]any{
		"template":       "{{date:YYYY-MM-DD}} {{new_note_title}} {{prop[Source]}}",
		"new_note_title": "Child",
		"props":          map[string]string{"Source": "Book"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[RenderResponse](t, w)
	assert.Equal(t, "2024-03-02 Child Book", resp.Output)
}

func TestMetadata(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/metadata", map[string]any{"text": "B: 2\nA: 1\n***\nC: 3"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"metadata":{"B":"2","A":"1"}}`, strings.TrimSpace(w.Body.String()))

	w = e.do(t, http.MethodPost, "/metadata", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty request")
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123")

	w := e.do(t, http.MethodGet, "/notes", nil, "Authorization", "Bearer secret123")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123")

	w := e.do(t, http.MethodGet, "/notes", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123")

	w := e.do(t, http.MethodGet, "/notes", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvWithSSE(t, "secret", blockingSSE)

	w := e.do(t, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvWithSSE(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChecksumRoundTrip(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/notes/source.md", nil)
	note := decode[NoteDetail](t, w)
	require.Equal(t, storage.Checksum([]byte(sourceNote)), note.Checksum)

	w = e.do(t, http.MethodPost, "/refactor/split", map[string]any{"path": "source.md", "line": 6, "if_match": note.Checksum})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
