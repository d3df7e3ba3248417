package store

import (
	"fmt"
)

// CursorDocument is the on-disk shape of the cursor file:
//
//	{ "cursor": { "after": "<opaque token>" } }
type CursorDocument struct {
	Cursor struct {
		After string `json:"after,omitempty"`
	} `json:"cursor"`
}

// CursorStore remembers where the last run stopped reading history.
type CursorStore struct {
	docs *Documents
	path string
}

// NewCursorStore creates a CursorStore backed by the file at path.
func NewCursorStore(docs *Documents, path string) *CursorStore {
	return &CursorStore{docs: docs, path: path}
}

// Load returns the stored cursor, or "" if none has been stored yet.
func (s *CursorStore) Load() (string, error) {
	var doc CursorDocument
	if _, err := s.docs.Read(s.path, &doc); err != nil {
		return "", fmt.Errorf("loading cursor: %w", err)
	}
	return doc.Cursor.After, nil
}

// Save stores after as the new cursor. An empty after leaves the stored
// cursor untouched, so a page without cursors never rewinds the next run.
// Reports whether anything was written.
func (s *CursorStore) Save(after string) (bool, error) {
	if after == "" {
		return false, nil
	}

	var doc CursorDocument
	doc.Cursor.After = after
	if err := s.docs.Write(s.path, doc); err != nil {
		return false, fmt.Errorf("saving cursor: %w", err)
	}
	return true, nil
}
