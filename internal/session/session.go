// Package session keeps the per-browser state of the storefront: the sidebar
// navigator, the viewport breakpoint and the currently mounted page.
package session

import (
	"sync"
	"time"

	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/page"
	"catalog/storefront/internal/sidebar"
	"catalog/storefront/internal/viewport"

	log "github.com/sirupsen/logrus"
)

// Session lives as long as the browser keeps coming back. The navigator and
// the breakpoint outlive page changes; the page is replaced when the route
// switches between the category and subcategory layouts.
type Session struct {
	ID string

	navigator  *sidebar.Navigator
	breakpoint *viewport.WidthBreakpoint
	deps       page.Deps

	mu       sync.Mutex
	current  page.Page
	lastSeen time.Time
	closed   bool
}

func newSession(id string, deps page.Deps, language string, width int, now time.Time) *Session {
	breakpoint := viewport.NewWidthBreakpoint(width)
	deps.Breakpoint = breakpoint

	navigator := sidebar.NewNavigator(deps.Client, deps.Timeout)
	navigator.Mount(language)

	return &Session{
		ID:         id,
		navigator:  navigator,
		breakpoint: breakpoint,
		deps:       deps,
		lastSeen:   now,
	}
}

func (s *Session) Navigator() *sidebar.Navigator {
	return s.navigator
}

func (s *Session) Breakpoint() *viewport.WidthBreakpoint {
	return s.breakpoint
}

// Current returns the mounted page, or nil before the first navigation.
func (s *Session) Current() page.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Navigate points the session at route. A page of the same kind is kept and
// re-keyed; otherwise the old page is closed and the other kind is mounted.
func (s *Session) Navigate(route domain.Route) page.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := page.KindCategory
	if route.IsSubCategory() {
		kind = page.KindSubCategory
	}

	if s.current != nil && s.current.Kind() != kind {
		log.Debugf("Session %s: unmounting %s page", s.ID, s.current.Kind())
		s.current.Close()
		s.current = nil
	}

	switch kind {
	case page.KindSubCategory:
		p, ok := s.current.(*page.SubCategoryPage)
		if !ok {
			p = page.NewSubCategoryPage(s.deps)
			s.current = p
		}
		p.Show(route.CategoryID, route.SubCategoryID)
	default:
		p, ok := s.current.(*page.CategoryPage)
		if !ok {
			p = page.NewCategoryPage(s.deps)
			s.current = p
		}
		p.Show(route.CategoryID)
	}

	s.navigator.OnRoute(route.Path())
	return s.current
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Close unmounts the page and the navigator, releasing every asset they hold.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	s.navigator.Close()
}
