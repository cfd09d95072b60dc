// Package models defines the domain types shared by storage, index and API.
package models

import "time"

// NoteMetadata is a lightweight description of a vault file.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefactorRecord is one new note produced from a source note.
type RefactorRecord struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}
