package session

import (
	"context"
	"testing"
	"time"

	"catalog/storefront/internal/assets"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/page"
	"catalog/storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	catalog *testutil.FakeCatalog
	store   *assets.MemoryStore
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		catalog: testutil.NewSampleCatalog(),
		store:   assets.NewMemoryStore(time.Hour),
	}
	f.manager = NewManager(page.Deps{Client: f.catalog, Assets: f.store, Timeout: time.Second}, "en-US", time.Minute)
	t.Cleanup(f.manager.Close)
	return f
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNavigateKeepsPageOfSameKind(t *testing.T) {
	f := newFixture(t)
	s := f.manager.Create(1280)

	first := s.Navigate(domain.Route{CategoryID: "3"})
	second := s.Navigate(domain.Route{CategoryID: "5"})

	assert.Same(t, first, second)
	view, err := second.(*page.CategoryPage).Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, page.StatusSuccess, view.Status)
	assert.Equal(t, "Garden", view.Breadcrumbs[1].Label)
}

func TestNavigateSwitchesKind(t *testing.T) {
	f := newFixture(t)
	s := f.manager.Create(1280)

	category := s.Navigate(domain.Route{CategoryID: "3"}).(*page.CategoryPage)
	_, err := category.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Len())

	sub, ok := s.Navigate(domain.Route{CategoryID: "3", SubCategoryID: "12"}).(*page.SubCategoryPage)
	require.True(t, ok)
	assert.Equal(t, page.StatusInitial, category.Status())

	view, err := sub.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, page.StatusSuccess, view.Status)
	assert.Equal(t, "Pans", view.Title)
	assert.Equal(t, 2, f.store.Len())
}

func TestNavigateExpandsSidebar(t *testing.T) {
	f := newFixture(t)
	s := f.manager.Create(1280)

	s.Navigate(domain.Route{CategoryID: "5"})
	s.Navigate(domain.Route{CategoryID: "7", SubCategoryID: "70"})

	require.Eventually(t, func() bool {
		return s.Navigator().Expanded(5) && s.Navigator().Expanded(7)
	}, time.Second, 5*time.Millisecond)
	assert.False(t, s.Navigator().Expanded(3))
}

func TestSessionBreakpointFromInitialWidth(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.manager.Create(500).Breakpoint().Compact())
	assert.False(t, f.manager.Create(1024).Breakpoint().Compact())
}

func TestGetUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, ok := f.manager.Get("missing")
	assert.False(t, ok)

	s := f.manager.Create(1280)
	got, ok := f.manager.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.manager.now = func() time.Time { return now }

	idle := f.manager.Create(1280)
	p := idle.Navigate(domain.Route{CategoryID: "3"}).(*page.CategoryPage)
	_, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, 2, f.store.Len())

	now = now.Add(45 * time.Second)
	active := f.manager.Create(1280)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, f.manager.Sweep())
	assert.Equal(t, 1, f.manager.Len())
	assert.Equal(t, 0, f.store.Len())

	_, ok := f.manager.Get(idle.ID)
	assert.False(t, ok)
	_, ok = f.manager.Get(active.ID)
	assert.True(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	s := f.manager.Create(1280)
	s.Navigate(domain.Route{CategoryID: "3"})

	s.Close()
	s.Close()
	assert.Nil(t, s.Current())
}
