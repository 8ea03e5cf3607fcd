package engine

import (
	"fmt"

	"github.com/anxkit/anx-sync/log"
	"github.com/anxkit/anx-sync/model"
	"go.uber.org/zap"
)

// BatchItem is one file to ingest together with its descriptive metadata.
type BatchItem struct {
	SourcePath string
	Meta       *model.Metadata
}

// ItemError identifies one failed item of a batch.
type ItemError struct {
	ID     string
	Source string
	Err    error
}

// BatchResult reports which items of a best-effort batch went through and
// which did not. One item failing never aborts the rest.
type BatchResult struct {
	Succeeded []string
	Failed    []ItemError
}

// AddBatch ingests files one by one, reporting progress per item. Duplicates
// land in Failed wrapping ErrDuplicate, callers that treat them as benign
// can check with errors.Is.
func (e *Engine) AddBatch(items []BatchItem) *BatchResult {
	res := &BatchResult{}
	total := len(items)

	for i, item := range items {
		e.progress(i, total, fmt.Sprintf("Sending book %d of %d", i+1, total))

		id, err := e.Add(item.SourcePath, item.Meta)
		if err != nil {
			log.Error("Failed to add book", zap.String("source", item.SourcePath), zap.Error(err))
			res.Failed = append(res.Failed, ItemError{Source: item.SourcePath, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}

	e.progress(total, total, "Finished sending books.")
	return res
}

// Delete soft-deletes the given catalog entries: backing and cover files are
// removed (missing ones tolerated), the row is marked deleted and the entry
// leaves the catalog. An id not present in the catalog is a warned no-op.
func (e *Engine) Delete(ids []string) *BatchResult {
	return e.remove(ids, false)
}

// HardDelete removes the rows outright.
//
// Deprecated: kept for stores whose reader build expects rows to vanish,
// Delete is the canonical path.
func (e *Engine) HardDelete(ids []string) *BatchResult {
	return e.remove(ids, true)
}

func (e *Engine) remove(ids []string, hard bool) *BatchResult {
	res := &BatchResult{}
	total := len(ids)

	for i, id := range ids {
		e.progress(i, total, fmt.Sprintf("Deleting book %d of %d", i+1, total))

		entry := e.catalog.Get(id)
		if entry == nil {
			log.Warn("Book not in catalog, skipping deletion", zap.String("id", id))
			continue
		}

		// Prefer the stored paths over the cached entry, the row is the
		// source of truth for what is on disk
		filePath, coverPath := "", entry.CoverPath
		if book, err := e.store.GetBook(&model.FindBook{ID: &entry.BookID}); err == nil && book != nil {
			filePath, coverPath = book.FilePath, book.CoverPath
		} else if rel, relErr := e.content.Rel(entry.Path); relErr == nil {
			filePath = rel
		}

		// File removal failures are logged, the row transition still happens,
		// database state wins
		if err := e.content.Remove(filePath); err != nil {
			log.Error("Failed to remove book payload", zap.String("id", id), zap.Error(err))
		}
		if err := e.content.Remove(coverPath); err != nil {
			log.Error("Failed to remove cover", zap.String("id", id), zap.Error(err))
		}

		var err error
		if hard {
			err = e.store.HardDeleteBook(entry.BookID)
		} else {
			err = e.store.SoftDeleteBook(entry.BookID)
		}
		if err != nil {
			log.Error("Failed to delete book row", zap.String("id", id), zap.Error(err))
			res.Failed = append(res.Failed, ItemError{ID: id, Err: err})
			continue
		}

		e.catalog.Remove(id)
		res.Succeeded = append(res.Succeeded, id)
		log.Info("Deleted book", zap.String("id", id), zap.Bool("hard", hard))
	}

	e.progress(total, total, "Finished deleting books.")
	return res
}

// Reconcile pushes in-memory edits back into the rows. Only fields that
// actually differ are written, an entry matching its row issues no statement
// at all.
func (e *Engine) Reconcile() *BatchResult {
	res := &BatchResult{}

	for _, entry := range e.catalog.Entries() {
		_, changed, err := e.store.UpdateBook(entry.BookID, &model.BookUpdate{
			Title:             &entry.Title,
			Author:            &entry.Author,
			Rating:            &entry.Rating,
			Description:       &entry.Description,
			GroupID:           &entry.GroupID,
			LastReadPosition:  &entry.LastReadPosition,
			ReadingPercentage: &entry.ReadingPercentage,
		})
		if err != nil {
			log.Error("Failed to reconcile book", zap.String("id", entry.ID), zap.Error(err))
			res.Failed = append(res.Failed, ItemError{ID: entry.ID, Err: err})
			continue
		}
		if changed {
			res.Succeeded = append(res.Succeeded, entry.ID)
		}
	}
	return res
}
