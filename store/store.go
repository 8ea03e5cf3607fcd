package store

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a row is not in the database.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db     *sql.DB
	dbLock sync.Mutex

	BookCache sync.Map // map[int]*Book

	// writes counts committed write statements, see Writes.
	writes int64
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

// Writes reports the number of write statements committed since the store was
// opened. Updates that change nothing do not issue a statement and leave the
// counter alone.
func (s *Store) Writes() int64 {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	return s.writes
}

func (s *Store) DBStats() sql.DBStats {
	return s.db.Stats()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}
