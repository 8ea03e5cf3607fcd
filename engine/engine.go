// Package engine reconciles the three stores describing a device's books:
// the tb_books table, the payload and cover files under the device root and
// the in-memory catalog handed to the host.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anxkit/anx-sync/catalog"
	"github.com/anxkit/anx-sync/config"
	"github.com/anxkit/anx-sync/log"
	"github.com/anxkit/anx-sync/model"
	"github.com/anxkit/anx-sync/storage"
	"github.com/anxkit/anx-sync/store"
	"github.com/anxkit/anx-sync/store/db"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected means the device root does not hold a usable store.
	ErrNotConnected = errors.New("device store is not connected")
	// ErrDuplicate is the defined outcome of adding content that is already
	// present and intact, not a failure.
	ErrDuplicate = errors.New("book already exists")
)

// ProgressFunc receives coarse per-item progress during batch operations.
// It carries no cancellation semantics.
type ProgressFunc func(done, total int, msg string)

// Engine owns the catalog and the repository it constructs. It assumes a
// single writer, nothing guards two engines against the same device tree.
type Engine struct {
	root     string
	deviceID string
	formats  []string

	db       *db.DB
	store    *store.Store
	content  *storage.ContentStore
	catalog  *catalog.Catalog
	progress ProgressFunc
}

// New validates the device layout before anything else, a broken tree fails
// here rather than on first use.
func New(opts *config.Options) (*Engine, error) {
	ctx := context.Background()

	if opts.DeviceRoot == "" {
		return nil, errors.Wrap(ErrNotConnected, "device root is not configured")
	}
	if err := db.ProbeDevice(ctx, opts.DeviceRoot, opts.DatabaseName); err != nil {
		log.Warn("Device probe failed", zap.String("root", opts.DeviceRoot), zap.Error(err))
		return nil, errors.Wrap(ErrNotConnected, err.Error())
	}

	d, err := db.NewDB(filepath.Join(opts.DeviceRoot, opts.DatabaseName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open device database")
	}

	e := &Engine{
		root:     opts.DeviceRoot,
		deviceID: uuid.New().String(),
		formats:  opts.SupportedFormats,
		db:       d,
		store:    store.NewStore(d.DB),
		content:  storage.NewContentStore(opts.DeviceRoot, opts.MaxFilenameLen, opts.HashAlgorithm),
		catalog:  catalog.New(),
		progress: func(done, total int, msg string) {},
	}
	log.Info("Connected to device", zap.String("root", e.root), zap.String("device_id", e.deviceID))
	return e, nil
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) DeviceID() string {
	return e.deviceID
}

// SetProgress installs a progress sink for batch operations.
func (e *Engine) SetProgress(fn ProgressFunc) {
	if fn != nil {
		e.progress = fn
	}
}

// supportedFormat checks the format against the list the engine was
// constructed with, not the global options.
func (e *Engine) supportedFormat(format string) bool {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	for _, f := range e.formats {
		if f == format {
			return true
		}
	}
	return false
}

const entryIDPrefix = "book_"

// EntryID derives the stable catalog identifier for a row id.
func EntryID(bookID int) string {
	return fmt.Sprintf("%s%d", entryIDPrefix, bookID)
}

// BookID maps a catalog identifier back to its row id.
func BookID(entryID string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(entryID, entryIDPrefix))
	if err != nil {
		return 0, errors.Errorf("malformed entry id %q", entryID)
	}
	return id, nil
}

// Load rebuilds the catalog from the active rows. Repeated calls against an
// unchanged store produce an identical catalog.
func (e *Engine) Load() error {
	books, err := e.store.ListActiveBooks()
	if err != nil {
		return errors.Wrap(err, "failed to list active books")
	}

	e.catalog.Clear()
	for _, book := range books {
		e.catalog.Add(e.buildEntry(book))
	}
	log.Info("Loaded books from device", zap.Int("count", e.catalog.Len()))
	return nil
}

// ListActive returns the catalog entries in stable order.
func (e *Engine) ListActive() []*model.Entry {
	return e.catalog.Entries()
}

// Catalog exposes the live catalog to host adapters. The engine stays the
// only writer.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Engine) buildEntry(book *model.Book) *model.Entry {
	abs := e.content.Abs(book.FilePath)

	var size int64
	modTime := time.Now()
	if fi, err := os.Stat(abs); err == nil {
		size = fi.Size()
		modTime = fi.ModTime()
	} else {
		// Degraded but tolerated, the host sees a zero-size book
		log.Warn("Book payload missing", zap.Int("book_id", book.ID), zap.String("path", abs))
	}

	entry := &model.Entry{
		ID:        EntryID(book.ID),
		BookID:    book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Path:      abs,
		CoverPath: book.CoverPath,
		Format:    strings.ToLower(strings.TrimPrefix(filepath.Ext(abs), ".")),
		Size:      size,
		ModTime:   modTime,
		FileMD5:   book.FileMD5,

		Rating:            book.Rating,
		Description:       book.Description,
		GroupID:           book.GroupID,
		LastReadPosition:  book.LastReadPosition,
		ReadingPercentage: book.ReadingPercentage,
	}

	if book.CoverPath != "" {
		if data, err := os.ReadFile(e.content.Abs(book.CoverPath)); err == nil {
			entry.HasCover = true
			entry.Thumbnail = data
		}
	}
	return entry
}

// Add ingests one source file. The decision is keyed on a single content
// hash computed before any copying:
//
//	no row for the hash            -> insert and catalog
//	soft-deleted row               -> reactivate in place, same id
//	active row, payload intact     -> ErrDuplicate
//	active row, payload missing    -> repair, rewrite at the stored path
//
// Returns the catalog identifier of the affected entry.
func (e *Engine) Add(sourcePath string, meta *model.Metadata) (string, error) {
	if meta == nil {
		meta = &model.Metadata{}
	}

	title := meta.Title
	if title == "" {
		base := filepath.Base(sourcePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	author := meta.Author()

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(sourcePath), "."))
	if format == "" {
		format = "epub"
	}
	if !e.supportedFormat(format) {
		return "", errors.Errorf("unsupported format %q: %s", format, sourcePath)
	}

	// The one canonical hash every branch below decides on
	hash, err := e.content.Hash(sourcePath)
	if err != nil {
		return "", err
	}

	existing, err := e.store.FindBookByHash(hash)
	if err != nil {
		return "", err
	}

	switch {
	case existing == nil:
		return e.addNew(sourcePath, title, author, format, hash, meta)
	case existing.IsDeleted:
		return e.reactivate(sourcePath, existing, title, author, format, meta)
	default:
		if _, err := os.Stat(e.content.Abs(existing.FilePath)); err == nil {
			return "", errors.Wrapf(ErrDuplicate, "%q (id %d, hash %s)", existing.Title, existing.ID, hash)
		}
		return e.repair(sourcePath, existing)
	}
}

func (e *Engine) addNew(sourcePath, title, author, format, hash string, meta *model.Metadata) (string, error) {
	rel, copied, err := e.content.Materialize(sourcePath, title, author, format)
	if err != nil {
		return "", err
	}
	if copied != hash {
		// Source changed between hashing and copying, the copied bytes are
		// what landed on the device so they win
		log.Warn("Source changed while copying", zap.String("source", sourcePath))
		hash = copied
	}

	coverRel, err := e.content.MaterializeCover(meta.CoverBytes, meta.CoverPath, title, author)
	if err != nil {
		log.Warn("Failed to store cover", zap.String("title", title), zap.Error(err))
		coverRel = ""
	}

	book, err := e.store.AddBook(&model.Book{
		Title:             title,
		Author:            author,
		FilePath:          rel,
		CoverPath:         coverRel,
		FileMD5:           hash,
		LastReadPosition:  meta.LastReadPosition,
		ReadingPercentage: meta.ReadingPercentage,
		Rating:            meta.Rating,
		GroupID:           meta.GroupID,
		Description:       meta.Description,
	})
	if err != nil {
		// The row never landed, keep the tree clean
		e.content.Remove(rel)
		e.content.Remove(coverRel)
		return "", err
	}

	e.catalog.Add(e.buildEntry(book))
	log.Info("Added book", zap.Int("book_id", book.ID), zap.String("title", title))
	return EntryID(book.ID), nil
}

func (e *Engine) reactivate(sourcePath string, existing *model.Book, title, author, format string, meta *model.Metadata) (string, error) {
	rel, _, err := e.content.Materialize(sourcePath, title, author, format)
	if err != nil {
		return "", err
	}
	coverRel, err := e.content.MaterializeCover(meta.CoverBytes, meta.CoverPath, title, author)
	if err != nil {
		log.Warn("Failed to store cover", zap.String("title", title), zap.Error(err))
		coverRel = ""
	}

	active := false
	book, _, err := e.store.UpdateBook(existing.ID, &model.BookUpdate{
		Title:     &title,
		Author:    &author,
		FilePath:  &rel,
		CoverPath: &coverRel,
		IsDeleted: &active,
	})
	if err != nil {
		e.content.Remove(rel)
		e.content.Remove(coverRel)
		return "", err
	}

	e.catalog.Remove(EntryID(book.ID))
	e.catalog.Add(e.buildEntry(book))
	log.Info("Reactivated book", zap.Int("book_id", book.ID), zap.String("title", book.Title))
	return EntryID(book.ID), nil
}

func (e *Engine) repair(sourcePath string, existing *model.Book) (string, error) {
	if _, err := e.content.MaterializeAt(sourcePath, existing.FilePath); err != nil {
		return "", err
	}
	if err := e.store.TouchBook(existing.ID); err != nil {
		return "", err
	}

	book, err := e.store.GetBook(&model.FindBook{ID: &existing.ID})
	if err != nil {
		return "", err
	}

	e.catalog.Remove(EntryID(existing.ID))
	e.catalog.Add(e.buildEntry(book))
	log.Info("Repaired book payload", zap.Int("book_id", existing.ID), zap.String("path", existing.FilePath))
	return EntryID(existing.ID), nil
}
