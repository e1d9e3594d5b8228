package page

import (
	"context"
	"strconv"
	"sync"
	"time"

	"catalog/storefront/internal/assets"
	"catalog/storefront/internal/client"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/loader"
	"catalog/storefront/internal/viewport"
)

const homeLabel = "Home"

// Deps are the collaborators every page is built from.
type Deps struct {
	Client     client.CatalogClient
	Assets     assets.Store
	Breakpoint viewport.Breakpoint
	Timeout    time.Duration
}

// Page is a mounted catalog page.
type Page interface {
	Kind() string
	Status() Status
	Close()
}

type Crumb struct {
	Label   string `json:"label"`
	Href    string `json:"href,omitempty"`
	Loading bool   `json:"loading,omitempty"`
}

type BannerView struct {
	URL     string `json:"url"`
	Compact bool   `json:"compact"`
	Loading bool   `json:"loading"`
}

type ProductCard struct {
	ID       int    `json:"product_id"`
	Title    string `json:"title"`
	Alt      string `json:"alt"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
}

// SubCategoryGrid is one subcategory section of the category page
type SubCategoryGrid struct {
	ID           int           `json:"sub_category_id"`
	Name         string        `json:"name"`
	ViewMoreHref string        `json:"view_more_href"`
	Products     []ProductCard `json:"products"`
}

// ThumbnailURL is where a product card loads its image from.
func ThumbnailURL(fileID int) string {
	return "/products/" + strconv.Itoa(fileID) + "/thumbnail"
}

func productCards(products []domain.Product) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, product := range products {
		cards = append(cards, ProductCard{
			ID:       product.ID,
			Title:    product.Name,
			Alt:      product.Name,
			Price:    product.FirstPrice.String(),
			ImageURL: ThumbnailURL(product.MainFileID),
		})
	}
	return cards
}

// selectBanner picks the variant for the viewport. A variant that is not
// ready yet yields an empty URL instead of holding the page back.
func selectBanner(compact bool, main, mobile loader.State[domain.BannerAsset]) string {
	chosen := main
	if compact {
		chosen = mobile
	}
	if !chosen.Ready {
		return ""
	}
	return chosen.Value.URL()
}

// notifier wakes everyone waiting for the page to change
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *notifier) signal() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
}

// waitSettled re-evaluates view after every change until its status is no
// longer LOADING or ctx ends.
func waitSettled[V any](ctx context.Context, changed *notifier, view func() V, status func(V) Status) (V, error) {
	for {
		ch := changed.wait()
		v := view()
		if status(v) != StatusLoading {
			return v, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}
