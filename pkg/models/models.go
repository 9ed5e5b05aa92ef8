// Package models defines the entities persisted by the storage layer.
//
// The unit of persistence is the [Workspace], which owns an ordered
// sequence of [Page] values. Pages form a loose hierarchy through ParentID:
// a page with IsFolder set contains other pages, a page without a ParentID
// sits at the root. The mapping is deliberately not a strict tree; the
// storage layer stores whatever hierarchy the editor hands it and does not
// try to detect cycles.
//
// Entities are created in memory by the application layer and handed to a
// storage provider for persistence. Providers never generate identifiers;
// callers assign them, typically with [NewID].
package models

import "time"

// Page is a single note or folder node.
//
// Identity is ID. A page with IsFolder true is a container for other pages,
// linked to it through their ParentID. Content holds the editor's document
// for leaf pages and is empty for folders.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsFolder  bool      `json:"isFolder"`
	ParentID  string    `json:"parentId,omitempty"`
	Children  []*Page   `json:"children,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Indent    int       `json:"indent,omitempty"`
}

// Workspace is the top-level container owning an ordered collection of pages.
//
// Pages are embedded rather than normalized into separate records; some
// providers still persist them as separate resources, but the data model
// treats the workspace as the owner.
type Workspace struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Pages         []*Page `json:"pages"`
	CurrentPageID string  `json:"currentPageId,omitempty"`
}

// Clone returns a deep copy of the page, including children.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	if p.Children != nil {
		out.Children = make([]*Page, len(p.Children))
		for i, c := range p.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the workspace and its pages.
func (w *Workspace) Clone() *Workspace {
	if w == nil {
		return nil
	}
	out := *w
	if w.Pages != nil {
		out.Pages = make([]*Page, len(w.Pages))
		for i, p := range w.Pages {
			out.Pages[i] = p.Clone()
		}
	}
	return &out
}

// FindPage returns the page with the given id from the workspace's embedded
// page list, searching nested children as well, or nil if absent.
func (w *Workspace) FindPage(id string) *Page {
	if w == nil {
		return nil
	}
	return findPage(w.Pages, id)
}

func findPage(pages []*Page, id string) *Page {
	for _, p := range pages {
		if p.ID == id {
			return p
		}
		if found := findPage(p.Children, id); found != nil {
			return found
		}
	}
	return nil
}
