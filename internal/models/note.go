// Package models defines the vault domain types shared across layers.
package models

import (
	"path"
	"time"
)

// NoteMetadata describes one vault file without its content. Storage
// listings return it; the journal selector filters on it.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Basename returns the final element of the note path.
// Vault paths always use forward slashes.
func (m NoteMetadata) Basename() string {
	return path.Base(m.Path)
}
