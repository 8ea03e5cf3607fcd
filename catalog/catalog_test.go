package catalog

import (
	"fmt"
	"testing"

	"github.com/anxkit/anx-sync/model"
	"github.com/stretchr/testify/assert"
)

func entry(id int) *model.Entry {
	return &model.Entry{
		ID:     fmt.Sprintf("book_%d", id),
		BookID: id,
		Title:  fmt.Sprintf("Book %d", id),
		Path:   fmt.Sprintf("/device/data/file/book-%d.epub", id),
	}
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	c := New()
	for _, id := range []int{3, 1, 2} {
		c.Add(entry(id))
	}

	got := c.Entries()
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "book_3", got[0].ID)
	assert.Equal(t, "book_1", got[1].ID)
	assert.Equal(t, "book_2", got[2].ID)
}

func TestAddIsIdempotent(t *testing.T) {
	c := New()
	first := entry(1)
	first.Title = "kept"
	c.Add(first)

	dup := entry(1)
	dup.Title = "ignored"
	c.Add(dup)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "kept", c.Get("book_1").Title)
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(entry(1))
	c.Add(entry(2))

	removed := c.Remove("book_1")
	assert.NotNil(t, removed)
	assert.Equal(t, 1, c.Len())
	assert.Nil(t, c.Get("book_1"))
	assert.Nil(t, c.GetByPath(removed.Path))

	// Removing an absent id is a no-op
	assert.Nil(t, c.Remove("book_1"))
	assert.Equal(t, 1, c.Len())
}

func TestLookupByPath(t *testing.T) {
	c := New()
	e := entry(7)
	c.Add(e)

	got := c.GetByPath(e.Path)
	assert.NotNil(t, got)
	assert.Equal(t, "book_7", got.ID)
	assert.Nil(t, c.GetByPath("/nowhere"))
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(entry(1))
	c.Add(entry(2))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Entries())
	assert.Nil(t, c.Get("book_1"))
}
