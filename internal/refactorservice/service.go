// Package refactorservice coordinates the vault, the refactor engine, the
// note index and event publishing for note refactoring operations.
package refactorservice

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starford/notesplit/internal/index"
	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/storage"
)

// Publisher is notified after a refactor has been written to the vault.
type Publisher interface {
	PublishRefactor(source, mode string, targets []string)
}

type nopPublisher struct{}

func (nopPublisher) PublishRefactor(string, string, []string) {}

// Service runs refactor operations against a vault.
type Service struct {
	store       storage.Provider
	db          index.NoteIndex
	settings    refactor.Settings
	notesFolder string
	linkStyle   string
	now         func() time.Time
	publisher   Publisher
	logger      *slog.Logger

	// writeMu serialises refactors so each create-or-append decision sees
	// every previously committed note.
	writeMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithNotesFolder sets the vault folder new notes are created in.
func WithNotesFolder(folder string) Option {
	return func(s *Service) {
		s.notesFolder = folder
	}
}

// WithLinkStyle sets the link style (storage.LinkStyleWikilink or
// storage.LinkStyleMarkdown).
func WithLinkStyle(style string) Option {
	return func(s *Service) {
		s.linkStyle = style
	}
}

// WithClock overrides the clock used by date placeholders.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPublisher sets the refactor event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service.
func New(store storage.Provider, db index.NoteIndex, settings refactor.Settings, opts ...Option) *Service {
	s := &Service{
		store:     store,
		db:        db,
		settings:  settings,
		linkStyle: storage.LinkStyleWikilink,
		now:       time.Now,
		publisher: nopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the refactor settings.
func (s *Service) Settings() refactor.Settings {
	return s.settings
}
