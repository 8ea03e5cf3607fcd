package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/anxkit/anx-sync/log"
	"github.com/anxkit/anx-sync/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (s *Store) GetBook(find *model.FindBook) (*model.Book, error) {
	if find.ID != nil {
		if cache, ok := s.BookCache.Load(*find.ID); ok {
			return cache.(*model.Book), nil
		}
	}

	list, err := s.ListBooks(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	book := list[0]
	s.BookCache.Store(book.ID, book)
	return book, nil
}

// FindBookByHash looks a book up by its content hash. Soft-deleted rows are
// returned too, reactivation depends on seeing them. Returns nil when the
// hash is unknown.
func (s *Store) FindBookByHash(hash string) (*model.Book, error) {
	one := 1
	list, err := s.ListBooks(&model.FindBook{FileMD5: &hash, Limit: &one})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListActiveBooks returns all rows with is_deleted = 0 ordered by id, the
// order the host list shows.
func (s *Store) ListActiveBooks() ([]*model.Book, error) {
	active := false
	return s.ListBooks(&model.FindBook{IsDeleted: &active})
}

func (s *Store) ListBooks(find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Title; v != nil {
		where, args = append(where, "title = ?"), append(args, *v)
	}
	if v := find.Author; v != nil {
		where, args = append(where, "author = ?"), append(args, *v)
	}
	if v := find.FileMD5; v != nil {
		where, args = append(where, "file_md5 = ?"), append(args, *v)
	}
	if v := find.IsDeleted; v != nil {
		deleted := 0
		if *v {
			deleted = 1
		}
		where, args = append(where, "is_deleted = ?"), append(args, deleted)
	}

	// Default order by id, the stable host-visible order
	orderBy := []string{"id"}
	if find.OrderBy != nil {
		orderBy = []string{*find.OrderBy}
	}

	query := `
        SELECT
            id,
            title,
            author,
            file_path,
            cover_path,
            file_md5,
            create_time,
            update_time,
            last_read_position,
            reading_percentage,
            is_deleted,
            rating,
            group_id,
            description
        FROM tb_books
    WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + strings.Join(orderBy, ", ")
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:", zap.String("query", query), zap.Any("args", args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query books", zap.Error(err))
		return nil, errors.Wrap(err, "failed to query books")
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			log.Error("Failed to scan book", zap.Error(err))
			return nil, err
		}
		list = append(list, book)
	}
	return list, rows.Err()
}

func scanBook(rows *sql.Rows) (*model.Book, error) {
	var book model.Book
	var deleted int
	if err := rows.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.FilePath,
		&book.CoverPath,
		&book.FileMD5,
		&book.CreateTime,
		&book.UpdateTime,
		&book.LastReadPosition,
		&book.ReadingPercentage,
		&deleted,
		&book.Rating,
		&book.GroupID,
		&book.Description,
	); err != nil {
		return nil, err
	}
	book.IsDeleted = deleted != 0
	return &book, nil
}

// AddBook inserts a row and returns it with the assigned id. Timestamps are
// filled in when the caller left them empty.
func (s *Store) AddBook(book *model.Book) (*model.Book, error) {
	now := model.Now()
	if book.CreateTime == "" {
		book.CreateTime = now
	}
	if book.UpdateTime == "" {
		book.UpdateTime = now
	}

	stmt := `
        INSERT INTO tb_books (
            title,
            cover_path,
            file_path,
            author,
            create_time,
            update_time,
            file_md5,
            last_read_position,
            reading_percentage,
            is_deleted,
            rating,
            group_id,
            description
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
        RETURNING id`
	deleted := 0
	if book.IsDeleted {
		deleted = 1
	}
	args := []any{
		book.Title,
		book.CoverPath,
		book.FilePath,
		book.Author,
		book.CreateTime,
		book.UpdateTime,
		book.FileMD5,
		book.LastReadPosition,
		book.ReadingPercentage,
		deleted,
		book.Rating,
		book.GroupID,
		book.Description,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:", zap.String("query", stmt), zap.Any("args", args))

	newBook := *book
	if err := tx.QueryRow(stmt, args...).Scan(&newBook.ID); err != nil {
		return nil, errors.Wrap(err, "failed to insert book")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit")
	}
	s.writes++

	s.BookCache.Store(newBook.ID, &newBook)
	return &newBook, nil
}

// UpdateBook writes the fields of update that differ from the current row and
// bumps update_time when anything changed. When every supplied field already
// matches, no statement is issued at all and changed is false.
func (s *Store) UpdateBook(id int, update *model.BookUpdate) (book *model.Book, changed bool, err error) {
	s.BookCache.Delete(id)
	cur, err := s.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		return nil, false, err
	}
	if cur == nil {
		return nil, false, errors.Wrapf(ErrNotFound, "book %d", id)
	}

	// Diff into a copy, cur is the cached row and must keep the committed
	// state until the transaction goes through
	upd := *cur
	set, args := []string{}, []any{}

	if v := update.Title; v != nil && *v != cur.Title {
		set, args = append(set, "title = ?"), append(args, *v)
		upd.Title = *v
	}
	if v := update.Author; v != nil && *v != cur.Author {
		set, args = append(set, "author = ?"), append(args, *v)
		upd.Author = *v
	}
	if v := update.FilePath; v != nil && *v != cur.FilePath {
		set, args = append(set, "file_path = ?"), append(args, *v)
		upd.FilePath = *v
	}
	if v := update.CoverPath; v != nil && *v != cur.CoverPath {
		set, args = append(set, "cover_path = ?"), append(args, *v)
		upd.CoverPath = *v
	}
	if v := update.FileMD5; v != nil && *v != cur.FileMD5 {
		set, args = append(set, "file_md5 = ?"), append(args, *v)
		upd.FileMD5 = *v
	}
	if v := update.LastReadPosition; v != nil && *v != cur.LastReadPosition {
		set, args = append(set, "last_read_position = ?"), append(args, *v)
		upd.LastReadPosition = *v
	}
	if v := update.ReadingPercentage; v != nil && *v != cur.ReadingPercentage {
		set, args = append(set, "reading_percentage = ?"), append(args, *v)
		upd.ReadingPercentage = *v
	}
	if v := update.IsDeleted; v != nil && *v != cur.IsDeleted {
		deleted := 0
		if *v {
			deleted = 1
		}
		set, args = append(set, "is_deleted = ?"), append(args, deleted)
		upd.IsDeleted = *v
	}
	if v := update.Rating; v != nil && *v != cur.Rating {
		set, args = append(set, "rating = ?"), append(args, *v)
		upd.Rating = *v
	}
	if v := update.GroupID; v != nil && *v != cur.GroupID {
		set, args = append(set, "group_id = ?"), append(args, *v)
		upd.GroupID = *v
	}
	if v := update.Description; v != nil && *v != cur.Description {
		set, args = append(set, "description = ?"), append(args, *v)
		upd.Description = *v
	}

	if len(set) == 0 {
		// Nothing differs, do not touch the row
		return cur, false, nil
	}

	upd.UpdateTime = model.Now()
	set, args = append(set, "update_time = ?"), append(args, upd.UpdateTime)
	args = append(args, id)

	stmt := `UPDATE tb_books SET ` + strings.Join(set, ", ") + ` WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:", zap.String("query", stmt), zap.Any("args", args))

	if _, err := tx.Exec(stmt, args...); err != nil {
		return nil, false, errors.Wrapf(err, "failed to update book %d", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "failed to commit")
	}
	s.writes++

	s.BookCache.Store(upd.ID, &upd)
	return &upd, true, nil
}

// TouchBook refreshes update_time without changing any other field. The
// repair path uses it after rewriting a payload in place.
func (s *Store) TouchBook(id int) error {
	stmt := `UPDATE tb_books SET update_time = ? WHERE id = ?`
	args := []any{model.Now(), id}

	s.BookCache.Delete(id)

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:", zap.String("query", stmt), zap.Any("args", args))

	if _, err := tx.Exec(stmt, args...); err != nil {
		return errors.Wrapf(err, "failed to touch book %d", id)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	s.writes++
	return nil
}

// SoftDeleteBook marks the row deleted. The row stays for history and for
// reactivation on a later add with the same hash.
func (s *Store) SoftDeleteBook(id int) error {
	stmt := `UPDATE tb_books SET is_deleted = 1, update_time = ? WHERE id = ?`
	args := []any{model.Now(), id}

	s.BookCache.Delete(id)

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:", zap.String("query", stmt), zap.Any("args", args))

	if _, err := tx.Exec(stmt, args...); err != nil {
		return errors.Wrapf(err, "failed to soft delete book %d", id)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	s.writes++
	return nil
}

// HardDeleteBook removes the row outright.
//
// Deprecated: kept for stores whose reader build expects rows to vanish, new
// callers soft delete.
func (s *Store) HardDeleteBook(id int) error {
	stmt := `DELETE FROM tb_books WHERE id = ?`
	args := []any{id}

	s.BookCache.Delete(id)

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:", zap.String("query", stmt), zap.Any("args", args))

	if _, err := tx.Exec(stmt, args...); err != nil {
		return errors.Wrapf(err, "failed to delete book %d", id)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	s.writes++
	return nil
}
