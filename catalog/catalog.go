// Package catalog holds the in-memory, host-facing view of the active books
// on a device. Entries keep insertion order, the order the host shows, and
// are reachable in O(1) both by entry ID and by absolute payload path.
package catalog

import "github.com/anxkit/anx-sync/model"

type Catalog struct {
	byID   map[string]*model.Entry
	byPath map[string]string // absolute payload path -> entry ID
	order  []string
}

func New() *Catalog {
	c := &Catalog{}
	c.Clear()
	return c
}

// Add appends an entry. Adding an ID that is already present is a no-op, the
// first entry wins and the order does not change.
func (c *Catalog) Add(entry *model.Entry) {
	if _, ok := c.byID[entry.ID]; ok {
		return
	}
	c.byID[entry.ID] = entry
	if entry.Path != "" {
		c.byPath[entry.Path] = entry.ID
	}
	c.order = append(c.order, entry.ID)
}

// Remove drops an entry by ID and returns it, nil when absent.
func (c *Catalog) Remove(id string) *model.Entry {
	entry, ok := c.byID[id]
	if !ok {
		return nil
	}
	delete(c.byID, id)
	if entry.Path != "" {
		delete(c.byPath, entry.Path)
	}
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return entry
}

func (c *Catalog) Get(id string) *model.Entry {
	return c.byID[id]
}

func (c *Catalog) GetByPath(path string) *model.Entry {
	id, ok := c.byPath[path]
	if !ok {
		return nil
	}
	return c.byID[id]
}

func (c *Catalog) Clear() {
	c.byID = make(map[string]*model.Entry)
	c.byPath = make(map[string]string)
	c.order = c.order[:0]
}

// Entries returns the entries in insertion order.
func (c *Catalog) Entries() []*model.Entry {
	list := make([]*model.Entry, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, c.byID[id])
	}
	return list
}

func (c *Catalog) Len() int {
	return len(c.order)
}
