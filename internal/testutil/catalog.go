// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	OpTree          = "tree"
	OpSubCategories = "subcategories"
	OpProducts      = "products"
	OpFile          = "file"
	OpProductFile   = "product-file"
)

type call struct {
	op string
	id int
}

var _ client.CatalogClient = (*FakeCatalog)(nil)

// FakeCatalog is an in-memory catalog API. Individual calls can be made to
// fail or to block until released.
type FakeCatalog struct {
	mu               sync.Mutex
	Tree             []domain.Category
	SubCategoryLists map[int][]domain.SubCategory
	ProductLists     map[int][]domain.Product
	Files            map[int]*domain.Blob
	ProductFiles     map[int]*domain.Blob

	errs  map[call]error
	gates map[call]chan struct{}
	calls map[call]int
}

// Fail makes every call of op for id return err. The tree call uses id 0.
func (f *FakeCatalog) Fail(op string, id int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[call]error)
	}
	f.errs[call{op, id}] = err
}

// Hold blocks calls of op for id until the returned func is called.
func (f *FakeCatalog) Hold(op string, id int) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[call]chan struct{})
	}
	gate := make(chan struct{})
	f.gates[call{op, id}] = gate

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Calls reports how many times op was invoked for id.
func (f *FakeCatalog) Calls(op string, id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call{op, id}]
}

func (f *FakeCatalog) enter(ctx context.Context, op string, id int) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[call]int)
	}
	c := call{op, id}
	f.calls[c]++
	gate := f.gates[c]
	err := f.errs[c]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FakeCatalog) GetCategoriesWithSubCategories(ctx context.Context) ([]domain.Category, error) {
	if err := f.enter(ctx, OpTree, 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Category(nil), f.Tree...), nil
}

func (f *FakeCatalog) GetSubCategoriesByCategory(ctx context.Context, categoryID int) ([]domain.SubCategory, error) {
	if err := f.enter(ctx, OpSubCategories, categoryID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SubCategoryLists[categoryID], nil
}

func (f *FakeCatalog) GetProductsBySubCategory(ctx context.Context, subCategoryID int) ([]domain.Product, error) {
	if err := f.enter(ctx, OpProducts, subCategoryID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ProductLists[subCategoryID], nil
}

func (f *FakeCatalog) GetFile(ctx context.Context, fileID int) (*domain.Blob, error) {
	if err := f.enter(ctx, OpFile, fileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.Files[fileID]
	if !ok {
		return nil, &domain.FetchError{Status: 404, Message: "Failed to fetch banner image"}
	}
	return blob, nil
}

func (f *FakeCatalog) GetProductFile(ctx context.Context, fileID int) (*domain.Blob, error) {
	if err := f.enter(ctx, OpProductFile, fileID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.ProductFiles[fileID]
	if !ok {
		return nil, &domain.FetchError{Status: 404, Message: "Failed to fetch product image"}
	}
	return blob, nil
}

// NewSampleCatalog returns a catalog with three categories. Category 3
// "Kitchen" has subcategories 12 "Pans" and 13 "Pots", each with one
// product priced 49.99. Categories 5 and 7 have one subcategory each.
func NewSampleCatalog() *FakeCatalog {
	price := decimal.RequireFromString("49.99")

	skillet := domain.Product{ID: 1201, Name: "Cast Iron Skillet", MainFileID: 9001, FirstPrice: price, FirstQuantity: 1}
	stockpot := domain.Product{ID: 1301, Name: "Stock Pot", MainFileID: 9002, FirstPrice: price, FirstQuantity: 1}

	pans := domain.SubCategory{ID: 12, Name: "Pans", MainBannerFileID: 120, MobileBannerFileID: 121}
	pots := domain.SubCategory{ID: 13, Name: "Pots", MainBannerFileID: 130, MobileBannerFileID: 131}
	beds := domain.SubCategory{ID: 50, Name: "Flower Beds", MainBannerFileID: 500, MobileBannerFileID: 501}
	drills := domain.SubCategory{ID: 70, Name: "Drills", MainBannerFileID: 700, MobileBannerFileID: 701}

	tree := []domain.Category{
		{ID: 3, Name: "Kitchen", FileID: 3, MainBannerFileID: 30, MobileBannerFileID: 31, SubCategories: []domain.SubCategory{pans, pots}},
		{ID: 5, Name: "Garden", FileID: 5, MainBannerFileID: 50, MobileBannerFileID: 51, SubCategories: []domain.SubCategory{beds}},
		{ID: 7, Name: "Tools", FileID: 7, MainBannerFileID: 70, MobileBannerFileID: 71, SubCategories: []domain.SubCategory{drills}},
	}

	withProducts := func(sub domain.SubCategory, categoryID int, categoryName string, products ...domain.Product) domain.SubCategory {
		sub.CategoryID = categoryID
		sub.CategoryName = categoryName
		sub.Products = products
		return sub
	}

	files := make(map[int]*domain.Blob)
	for _, id := range []int{30, 31, 50, 51, 70, 71, 120, 121, 130, 131, 500, 501, 700, 701} {
		files[id] = &domain.Blob{Data: []byte(fmt.Sprintf("banner-%d", id)), ContentType: "image/jpeg"}
	}

	return &FakeCatalog{
		Tree: tree,
		SubCategoryLists: map[int][]domain.SubCategory{
			3: {withProducts(pans, 3, "Kitchen", skillet), withProducts(pots, 3, "Kitchen", stockpot)},
			5: {withProducts(beds, 5, "Garden")},
			7: {withProducts(drills, 7, "Tools")},
		},
		ProductLists: map[int][]domain.Product{
			12: {skillet},
			13: {stockpot},
		},
		Files: files,
		ProductFiles: map[int]*domain.Blob{
			9001: {Data: []byte("skillet"), ContentType: "image/webp"},
			9002: {Data: []byte("stockpot"), ContentType: "image/webp"},
		},
	}
}
