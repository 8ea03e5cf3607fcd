package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anxkit/anx-sync/config"
	"github.com/anxkit/anx-sync/log"
	"github.com/anxkit/anx-sync/model"
	"github.com/anxkit/anx-sync/store/db"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	log.Logger = log.NewLogger(nil)
}

func createTestStore(t *testing.T) *Store {
	t.Helper()

	d, err := db.NewDB(filepath.Join(t.TempDir(), "database7.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := d.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	return NewStore(d.DB)
}

func testBook(hash string) *model.Book {
	return &model.Book{
		Title:    "The Test Book",
		Author:   "Test Author",
		FilePath: "data/file/The Test Book - Test Author.epub",
		FileMD5:  hash,
	}
}

func TestAddAndGetBook(t *testing.T) {
	s := createTestStore(t)

	added, err := s.AddBook(testBook("abc123"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	if added.ID == 0 {
		t.Fatalf("Expected an assigned id")
	}
	if added.CreateTime == "" || added.UpdateTime == "" {
		t.Errorf("Expected timestamps to be assigned")
	}

	got, err := s.GetBook(&model.FindBook{ID: &added.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got == nil || got.Title != "The Test Book" || got.FileMD5 != "abc123" {
		t.Errorf("Book did not round-trip: %+v", got)
	}
}

func TestFindBookByHash(t *testing.T) {
	s := createTestStore(t)

	added, err := s.AddBook(testBook("feed01"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	got, err := s.FindBookByHash("feed01")
	if err != nil {
		t.Fatalf("Failed to find by hash: %v", err)
	}
	if got == nil || got.ID != added.ID {
		t.Fatalf("Expected to find book %d, got %+v", added.ID, got)
	}

	// Soft-deleted rows must stay findable, reactivation depends on it
	if err := s.SoftDeleteBook(added.ID); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}
	got, err = s.FindBookByHash("feed01")
	if err != nil {
		t.Fatalf("Failed to find by hash: %v", err)
	}
	if got == nil || !got.IsDeleted {
		t.Fatalf("Expected soft-deleted book, got %+v", got)
	}

	got, err = s.FindBookByHash("no-such-hash")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("Expected nil for unknown hash, got %+v", got)
	}
}

func TestUpdateBookNoOp(t *testing.T) {
	s := createTestStore(t)

	added, err := s.AddBook(testBook("cafe02"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	writes := s.Writes()
	sameTitle := added.Title
	sameAuthor := added.Author
	_, changed, err := s.UpdateBook(added.ID, &model.BookUpdate{
		Title:  &sameTitle,
		Author: &sameAuthor,
	})
	if err != nil {
		t.Fatalf("Failed to update book: %v", err)
	}
	if changed {
		t.Errorf("Expected no-op update to report unchanged")
	}
	if s.Writes() != writes {
		t.Errorf("Expected zero write statements, got %d", s.Writes()-writes)
	}

	newTitle := "Renamed"
	updated, changed, err := s.UpdateBook(added.ID, &model.BookUpdate{Title: &newTitle})
	if err != nil {
		t.Fatalf("Failed to update book: %v", err)
	}
	if !changed {
		t.Errorf("Expected update to report changed")
	}
	if updated.Title != "Renamed" {
		t.Errorf("Expected renamed title, got %q", updated.Title)
	}
	if s.Writes() != writes+1 {
		t.Errorf("Expected exactly one write statement, got %d", s.Writes()-writes)
	}
}

func TestUpdateBookFailureKeepsCachedRow(t *testing.T) {
	s := createTestStore(t)

	added, err := s.AddBook(testBook("0ddba11"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	// Make every UPDATE fail so the transaction rolls back
	if _, err := s.db.Exec(`CREATE TRIGGER block_updates BEFORE UPDATE ON tb_books
        BEGIN SELECT RAISE(ABORT, 'updates blocked'); END`); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	writes := s.Writes()
	newTitle := "Mutated"
	if _, _, err := s.UpdateBook(added.ID, &model.BookUpdate{Title: &newTitle}); err == nil {
		t.Fatalf("Expected update to fail")
	}
	if s.Writes() != writes {
		t.Errorf("Expected no write to be counted for a failed update")
	}

	// The cached row must still carry the committed state, not the values
	// the failed statement never wrote
	got, err := s.GetBook(&model.FindBook{ID: &added.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got.Title != "The Test Book" {
		t.Fatalf("Cache kept values the row never got: %q", got.Title)
	}
}

func TestSoftDeleteAndListActive(t *testing.T) {
	s := createTestStore(t)

	first, err := s.AddBook(testBook("aaa001"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	second, err := s.AddBook(testBook("bbb002"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	if err := s.SoftDeleteBook(first.ID); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}

	active, err := s.ListActiveBooks()
	if err != nil {
		t.Fatalf("Failed to list active books: %v", err)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("Expected only book %d active, got %+v", second.ID, active)
	}

	// The soft-deleted row must persist
	all, err := s.ListBooks(&model.FindBook{})
	if err != nil {
		t.Fatalf("Failed to list books: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(all))
	}
}

func TestHardDeleteBook(t *testing.T) {
	s := createTestStore(t)

	added, err := s.AddBook(testBook("dead03"))
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	if err := s.HardDeleteBook(added.ID); err != nil {
		t.Fatalf("Failed to hard delete: %v", err)
	}

	all, err := s.ListBooks(&model.FindBook{})
	if err != nil {
		t.Fatalf("Failed to list books: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("Expected row to be gone, got %+v", all)
	}
}

func TestListActiveOrder(t *testing.T) {
	s := createTestStore(t)

	for _, hash := range []string{"h1", "h2", "h3"} {
		book := testBook(hash)
		book.Title = "Book " + hash
		if _, err := s.AddBook(book); err != nil {
			t.Fatalf("Failed to add book: %v", err)
		}
	}

	active, err := s.ListActiveBooks()
	if err != nil {
		t.Fatalf("Failed to list active books: %v", err)
	}
	for i := 1; i < len(active); i++ {
		if active[i-1].ID >= active[i].ID {
			t.Fatalf("Expected ascending id order, got %+v", active)
		}
	}
}
