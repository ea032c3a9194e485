// ABOUTME: Unified Storage layer that wraps the video and message stores
// ABOUTME: Satisfies storage.Store and can share its DB with the sqlite vector index
package sqlite

import (
	"fmt"

	"github.com/harper/vidchat/internal/storage"
)

// Storage manages video status and chat history in one SQLite database
type Storage struct {
	*VideoStore
	*MessageStore
	db     *DB
	ownsDB bool
}

var _ storage.Store = (*Storage)(nil)

// NewStorage opens (or creates) the database at path and owns it
func NewStorage(path string) (*Storage, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := NewStorageWithDB(db)
	s.ownsDB = true
	return s, nil
}

// NewStorageInMemory creates storage backed by an in-memory database (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, err
	}
	s := NewStorageWithDB(db)
	s.ownsDB = true
	return s, nil
}

// NewStorageWithDB wraps an already open database; Close leaves it open
func NewStorageWithDB(db *DB) *Storage {
	return &Storage{
		VideoStore:   NewVideoStore(db),
		MessageStore: NewMessageStore(db),
		db:           db,
	}
}

// DB returns the underlying database
func (s *Storage) DB() *DB {
	return s.db
}

// Close closes the database if this Storage opened it
func (s *Storage) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
