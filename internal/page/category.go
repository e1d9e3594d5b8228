package page

import (
	"context"
	"sync"

	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/loader"
	"catalog/storefront/internal/viewport"

	log "github.com/sirupsen/logrus"
)

const (
	KindCategory = "category"

	subCategoriesErrorMessage = "Unable to load subcategories. Please try again later."
	subCategoriesEmptyMessage = "No subcategories available in this category."
)

type CategoryView struct {
	Route              domain.Route      `json:"-"`
	Status             Status            `json:"status"`
	PageLoading        bool              `json:"page_loading"`
	Error              string            `json:"error,omitempty"`
	NotFound           bool              `json:"not_found,omitempty"`
	Breadcrumbs        []Crumb           `json:"breadcrumbs"`
	BreadcrumbsLoading bool              `json:"breadcrumbs_loading"`
	Banner             BannerView        `json:"banner"`
	SidebarLoading     bool              `json:"sidebar_loading"`
	ContentLoading     bool              `json:"content_loading"`
	ListError          string            `json:"list_error,omitempty"`
	EmptyMessage       string            `json:"empty_message,omitempty"`
	SubCategories      []SubCategoryGrid `json:"sub_categories"`
}

// CategoryPage aggregates the category, its two banners and its subcategory
// list. Banners and list are keyed off the resolved category, so they start
// once it arrives.
type CategoryPage struct {
	category      *loader.CategoryLoader
	mainBanner    *loader.BannerLoader
	mobileBanner  *loader.BannerLoader
	subCategories *loader.SubCategoryListLoader
	breakpoint    viewport.Breakpoint

	// serializes reactions to category changes so the last one sees the latest state
	deriveMu sync.Mutex

	changed      *notifier
	unsubscribes []func()
	closeOnce    sync.Once
}

func NewCategoryPage(deps Deps) *CategoryPage {
	p := &CategoryPage{
		category:      loader.NewCategoryLoader(deps.Client, deps.Timeout),
		mainBanner:    loader.NewBannerLoader(deps.Client, deps.Assets, deps.Timeout),
		mobileBanner:  loader.NewBannerLoader(deps.Client, deps.Assets, deps.Timeout),
		subCategories: loader.NewSubCategoryListLoader(deps.Client, deps.Timeout),
		breakpoint:    deps.Breakpoint,
		changed:       newNotifier(),
	}

	p.unsubscribes = append(p.unsubscribes,
		p.category.OnChange(p.onCategoryChange),
		p.mainBanner.OnChange(p.changed.signal),
		p.mobileBanner.OnChange(p.changed.signal),
		p.subCategories.OnChange(p.changed.signal),
		p.breakpoint.Subscribe(func(bool) { p.changed.signal() }),
	)

	return p
}

func (p *CategoryPage) Kind() string {
	return KindCategory
}

// Show points the page at categoryID. Showing the current id again is a no-op.
func (p *CategoryPage) Show(categoryID string) {
	p.category.Load(categoryID)
}

func (p *CategoryPage) onCategoryChange() {
	p.deriveMu.Lock()
	state := p.category.State()
	if state.Ready {
		p.mainBanner.Load(state.Value.MainBannerFileID)
		p.mobileBanner.Load(state.Value.MobileBannerFileID)
		p.subCategories.Load(state.Value.ID)
	} else {
		p.mainBanner.Clear()
		p.mobileBanner.Clear()
		p.subCategories.Clear()
	}
	p.deriveMu.Unlock()

	p.changed.signal()
}

func (p *CategoryPage) Status() Status {
	return p.View().Status
}

func (p *CategoryPage) View() CategoryView {
	categoryID := p.category.Key()
	category := p.category.StateFor(categoryID)

	var (
		main, mobile loader.State[domain.BannerAsset]
		list         loader.State[[]domain.SubCategory]
	)
	if category.Ready {
		main = p.mainBanner.StateFor(category.Value.MainBannerFileID)
		mobile = p.mobileBanner.StateFor(category.Value.MobileBannerFileID)
		list = p.subCategories.StateFor(category.Value.ID)
	}

	out := Resolve(categoryID != "", gateOf(category), gateOf(main), gateOf(mobile), gateOf(list))
	compact := p.breakpoint.Compact()

	view := CategoryView{
		Route:       domain.Route{CategoryID: categoryID},
		Status:      out.Status,
		PageLoading: out.PageLoading,
	}

	if out.Status == StatusFatalError {
		view.Error = domain.Message(out.Err)
		view.NotFound = domain.IsNotFound(out.Err)
		return view
	}

	view.BreadcrumbsLoading = out.PageLoading
	view.Breadcrumbs = []Crumb{
		{Label: homeLabel, Href: "/"},
		{Label: category.Value.Name, Href: domain.CategoryPath(categoryID), Loading: !category.Ready},
	}
	view.Banner = BannerView{
		URL:     selectBanner(compact, main, mobile),
		Compact: compact,
		Loading: out.PageLoading,
	}
	view.SidebarLoading = category.Loading
	view.ContentLoading = category.Loading || list.Loading

	switch {
	case view.ContentLoading || out.Status == StatusInitial:
	case list.Err != nil:
		view.ListError = subCategoriesErrorMessage
	case len(list.Value) == 0:
		view.EmptyMessage = subCategoriesEmptyMessage
	default:
		view.SubCategories = make([]SubCategoryGrid, 0, len(list.Value))
		for _, sub := range list.Value {
			view.SubCategories = append(view.SubCategories, SubCategoryGrid{
				ID:           sub.ID,
				Name:         sub.Name,
				ViewMoreHref: domain.SubCategoryPath(category.Value.ID, sub.ID),
				Products:     productCards(sub.Products),
			})
		}
	}

	return view
}

// Wait blocks until the page settles or ctx ends, and returns the latest view.
func (p *CategoryPage) Wait(ctx context.Context) (CategoryView, error) {
	return waitSettled(ctx, p.changed, p.View, func(v CategoryView) Status { return v.Status })
}

// Close unmounts the page: loaders stop, banners are released and the
// viewport subscription ends.
func (p *CategoryPage) Close() {
	p.closeOnce.Do(func() {
		for _, unsubscribe := range p.unsubscribes {
			unsubscribe()
		}
		p.category.Close()
		p.mainBanner.Close()
		p.mobileBanner.Close()
		p.subCategories.Close()
		log.Debugf("Category page closed")
	})
}
