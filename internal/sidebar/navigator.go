// Package sidebar keeps the category tree navigation and its expand/collapse
// state in sync with the current route.
package sidebar

import (
	"context"
	"strings"
	"sync"
	"time"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/loader"

	log "github.com/sirupsen/logrus"
)

const (
	// RowHeight approximates the rendered height of one subcategory link, in pixels
	RowHeight = 24
	Title     = "Products"
)

type Link struct {
	Name   string `json:"name"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

type Entry struct {
	ID          int    `json:"category_id"`
	Name        string `json:"name"`
	Href        string `json:"href"`
	Active      bool   `json:"active"`
	HasChildren bool   `json:"has_children"`
	Expanded    bool   `json:"expanded"`
	MaxHeight   int    `json:"max_height"`
	Children    []Link `json:"children,omitempty"`
}

type View struct {
	Title   string  `json:"title"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error,omitempty"`
	Entries []Entry `json:"entries"`
}

// Navigator fetches the tree once per mount and owns the expansion map,
// keyed by category id. Entries are only ever added or flipped: a category
// expanded because the route pointed into it stays expanded after the route
// moves on.
type Navigator struct {
	tree        *loader.TreeLoader
	unsubscribe func()

	mu       sync.Mutex
	path     string
	pending  []string // routed paths not yet expanded
	expanded map[int]bool
}

func NewNavigator(c client.CatalogClient, timeout time.Duration) *Navigator {
	n := &Navigator{
		tree:     loader.NewTreeLoader(c, timeout),
		expanded: make(map[int]bool),
	}
	n.unsubscribe = n.tree.OnChange(n.expandActive)
	return n
}

// Mount starts the one tree fetch. Mounting again with the same language is a no-op.
func (n *Navigator) Mount(language string) {
	n.tree.Load(language)
}

// OnRoute records the current path and expands the category it falls under.
// Paths routed before the tree arrives are kept and expanded once it does.
// Repeating the current path changes nothing, so a manual collapse survives
// a reload.
func (n *Navigator) OnRoute(path string) {
	n.mu.Lock()
	if n.path == path {
		n.mu.Unlock()
		return
	}
	n.path = path
	n.pending = append(n.pending, path)
	n.mu.Unlock()

	n.expandActive()
}

func (n *Navigator) expandActive() {
	state := n.tree.State()
	if !state.Ready {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, path := range n.pending {
		n.expandFor(state.Value, path)
	}
	n.pending = nil
}

func (n *Navigator) expandFor(tree []domain.Category, path string) {
	for _, category := range tree {
		if underCategory(path, category.ID) {
			if !n.expanded[category.ID] {
				log.Debugf("Expanding category %d for %s", category.ID, path)
			}
			n.expanded[category.ID] = true
			return
		}
	}
}

// Toggle flips the entry of one category, whatever the route says.
func (n *Navigator) Toggle(categoryID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expanded[categoryID] = !n.expanded[categoryID]
}

func (n *Navigator) Expanded(categoryID int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.expanded[categoryID]
}

func (n *Navigator) View() View {
	state := n.tree.State()

	n.mu.Lock()
	defer n.mu.Unlock()

	view := View{
		Title:   Title,
		Loading: state.Loading,
		Error:   state.Message(),
	}
	if !state.Ready {
		return view
	}

	view.Entries = make([]Entry, 0, len(state.Value))
	for _, category := range state.Value {
		href := domain.CategoryPath(category.ID)
		entry := Entry{
			ID:          category.ID,
			Name:        category.Name,
			Href:        href,
			Active:      n.path == href,
			HasChildren: len(category.SubCategories) > 0,
			Expanded:    n.expanded[category.ID],
		}
		if entry.Expanded {
			entry.MaxHeight = len(category.SubCategories) * RowHeight
		}
		for _, sub := range category.SubCategories {
			subHref := domain.SubCategoryPath(category.ID, sub.ID)
			entry.Children = append(entry.Children, Link{
				Name:   sub.Name,
				Href:   subHref,
				Active: n.path == subHref,
			})
		}
		view.Entries = append(view.Entries, entry)
	}
	return view
}

// Wait blocks until the tree fetch settles and returns the view.
func (n *Navigator) Wait(ctx context.Context) (View, error) {
	if _, err := n.tree.Wait(ctx); err != nil {
		return n.View(), err
	}
	n.expandActive()
	return n.View(), nil
}

func (n *Navigator) Close() {
	n.unsubscribe()
	n.tree.Close()
}

func underCategory(path string, categoryID int) bool {
	prefix := domain.CategoryPath(categoryID)
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
