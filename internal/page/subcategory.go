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
	KindSubCategory = "subcategory"

	productsErrorMessage = "Unable to load products. Please try again later."
	productsEmptyMessage = "No products available in this subcategory."
)

type SubCategoryView struct {
	Route              domain.Route  `json:"-"`
	Status             Status        `json:"status"`
	PageLoading        bool          `json:"page_loading"`
	Error              string        `json:"error,omitempty"`
	NotFound           bool          `json:"not_found,omitempty"`
	Breadcrumbs        []Crumb       `json:"breadcrumbs"`
	BreadcrumbsLoading bool          `json:"breadcrumbs_loading"`
	Banner             BannerView    `json:"banner"`
	SidebarLoading     bool          `json:"sidebar_loading"`
	Title              string        `json:"title"`
	ContentLoading     bool          `json:"content_loading"`
	ListError          string        `json:"list_error,omitempty"`
	EmptyMessage       string        `json:"empty_message,omitempty"`
	Products           []ProductCard `json:"products"`
}

// SubCategoryPage aggregates a subcategory, its two banners and its products.
// Products are keyed by the route parameter and load alongside the
// subcategory lookup; the banners wait for the subcategory.
type SubCategoryPage struct {
	subCategory  *loader.SubCategoryLoader
	mainBanner   *loader.BannerLoader
	mobileBanner *loader.BannerLoader
	products     *loader.ProductListLoader
	breakpoint   viewport.Breakpoint

	deriveMu sync.Mutex

	changed      *notifier
	unsubscribes []func()
	closeOnce    sync.Once
}

func NewSubCategoryPage(deps Deps) *SubCategoryPage {
	p := &SubCategoryPage{
		subCategory:  loader.NewSubCategoryLoader(deps.Client, deps.Timeout),
		mainBanner:   loader.NewBannerLoader(deps.Client, deps.Assets, deps.Timeout),
		mobileBanner: loader.NewBannerLoader(deps.Client, deps.Assets, deps.Timeout),
		products:     loader.NewProductListLoader(deps.Client, deps.Timeout),
		breakpoint:   deps.Breakpoint,
		changed:      newNotifier(),
	}

	p.unsubscribes = append(p.unsubscribes,
		p.subCategory.OnChange(p.onSubCategoryChange),
		p.mainBanner.OnChange(p.changed.signal),
		p.mobileBanner.OnChange(p.changed.signal),
		p.products.OnChange(p.changed.signal),
		p.breakpoint.Subscribe(func(bool) { p.changed.signal() }),
	)

	return p
}

func (p *SubCategoryPage) Kind() string {
	return KindSubCategory
}

// Show points the page at a subcategory of a category.
func (p *SubCategoryPage) Show(categoryID, subCategoryID string) {
	key := loader.NewSubCategoryKey(categoryID, subCategoryID)
	p.subCategory.Load(key)
	p.products.Load(key.SubCategoryID)
}

func (p *SubCategoryPage) onSubCategoryChange() {
	p.deriveMu.Lock()
	state := p.subCategory.State()
	if state.Ready {
		p.mainBanner.Load(state.Value.MainBannerFileID)
		p.mobileBanner.Load(state.Value.MobileBannerFileID)
	} else {
		p.mainBanner.Clear()
		p.mobileBanner.Clear()
	}
	p.deriveMu.Unlock()

	p.changed.signal()
}

func (p *SubCategoryPage) Status() Status {
	return p.View().Status
}

func (p *SubCategoryPage) View() SubCategoryView {
	key := p.subCategory.Key()
	sub := p.subCategory.StateFor(key)
	products := p.products.StateFor(key.SubCategoryID)

	var main, mobile loader.State[domain.BannerAsset]
	if sub.Ready {
		main = p.mainBanner.StateFor(sub.Value.MainBannerFileID)
		mobile = p.mobileBanner.StateFor(sub.Value.MobileBannerFileID)
	}

	mounted := key != loader.SubCategoryKey{}
	out := Resolve(mounted, gateOf(sub), gateOf(main), gateOf(mobile), gateOf(products))
	compact := p.breakpoint.Compact()

	view := SubCategoryView{
		Route:       domain.Route{CategoryID: key.CategoryID, SubCategoryID: key.SubCategoryID},
		Status:      out.Status,
		PageLoading: out.PageLoading,
	}

	if out.Status == StatusFatalError {
		view.Error = domain.Message(out.Err)
		view.NotFound = domain.IsNotFound(out.Err)
		return view
	}

	// links follow the parent the subcategory actually belongs to
	var parentID any = key.CategoryID
	if sub.Ready {
		parentID = sub.Value.CategoryID
	}

	view.BreadcrumbsLoading = out.PageLoading
	view.Breadcrumbs = []Crumb{
		{Label: homeLabel, Href: "/"},
		{Label: sub.Value.CategoryName, Href: domain.CategoryPath(parentID), Loading: !sub.Ready},
		{Label: sub.Value.Name, Href: domain.SubCategoryPath(parentID, key.SubCategoryID), Loading: !sub.Ready},
	}
	view.Banner = BannerView{
		URL:     selectBanner(compact, main, mobile),
		Compact: compact,
		Loading: out.PageLoading,
	}
	view.SidebarLoading = sub.Loading
	view.Title = sub.Value.Name
	view.ContentLoading = products.Loading

	switch {
	case view.ContentLoading || !mounted:
	case products.Err != nil:
		view.ListError = productsErrorMessage
	case len(products.Value) == 0:
		view.EmptyMessage = productsEmptyMessage
	default:
		view.Products = productCards(products.Value)
	}

	return view
}

func (p *SubCategoryPage) Wait(ctx context.Context) (SubCategoryView, error) {
	return waitSettled(ctx, p.changed, p.View, func(v SubCategoryView) Status { return v.Status })
}

func (p *SubCategoryPage) Close() {
	p.closeOnce.Do(func() {
		for _, unsubscribe := range p.unsubscribes {
			unsubscribe()
		}
		p.subCategory.Close()
		p.mainBanner.Close()
		p.mobileBanner.Close()
		p.products.Close()
		log.Debugf("Subcategory page closed")
	})
}
