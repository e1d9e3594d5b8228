package loader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"catalog/storefront/internal/assets"
	"catalog/storefront/internal/client"
	"catalog/storefront/internal/domain"

	log "github.com/sirupsen/logrus"
)

// SubCategoryKey identifies a subcategory page. Both ids come from the route.
type SubCategoryKey struct {
	CategoryID    string
	SubCategoryID string
}

// NewSubCategoryKey returns the zero key unless both ids are present.
func NewSubCategoryKey(categoryID, subCategoryID string) SubCategoryKey {
	if categoryID == "" || subCategoryID == "" {
		return SubCategoryKey{}
	}
	return SubCategoryKey{CategoryID: categoryID, SubCategoryID: subCategoryID}
}

type (
	CategoryLoader        = Loader[string, domain.Category]
	SubCategoryLoader     = Loader[SubCategoryKey, domain.SubCategory]
	BannerLoader          = Loader[int, domain.BannerAsset]
	ProductListLoader     = Loader[string, []domain.Product]
	SubCategoryListLoader = Loader[int, []domain.SubCategory]
	TreeLoader            = Loader[string, []domain.Category]
)

// NewCategoryLoader resolves a category id against the full category tree.
func NewCategoryLoader(c client.CatalogClient, timeout time.Duration) *CategoryLoader {
	return New("category", timeout, func(ctx context.Context, categoryID string) (domain.Category, error) {
		id, err := strconv.Atoi(categoryID)
		if err != nil {
			return domain.Category{}, &domain.NotFoundError{Resource: "Category", ID: categoryID}
		}

		tree, err := c.GetCategoriesWithSubCategories(ctx)
		if err != nil {
			return domain.Category{}, err
		}

		category, ok := domain.FindCategory(tree, id)
		if !ok {
			return domain.Category{}, &domain.NotFoundError{Resource: "Category", ID: categoryID}
		}
		return category, nil
	})
}

// NewSubCategoryLoader resolves a subcategory against the full category tree
// and denormalizes its parent name onto it.
func NewSubCategoryLoader(c client.CatalogClient, timeout time.Duration) *SubCategoryLoader {
	return New("subcategory", timeout, func(ctx context.Context, key SubCategoryKey) (domain.SubCategory, error) {
		id, err := strconv.Atoi(key.SubCategoryID)
		if err != nil {
			return domain.SubCategory{}, &domain.NotFoundError{Resource: "Subcategory", ID: key.SubCategoryID}
		}

		tree, err := c.GetCategoriesWithSubCategories(ctx)
		if err != nil {
			return domain.SubCategory{}, err
		}

		sub, ok := domain.FindSubCategory(tree, id)
		if !ok {
			return domain.SubCategory{}, &domain.NotFoundError{Resource: "Subcategory", ID: key.SubCategoryID}
		}
		return sub, nil
	})
}

// NewBannerLoader fetches a banner file and parks it in store. The asset is
// released whenever the loader lets go of it.
func NewBannerLoader(c client.CatalogClient, store assets.Store, timeout time.Duration) *BannerLoader {
	l := New("banner", timeout, func(ctx context.Context, fileID int) (domain.BannerAsset, error) {
		blob, err := c.GetFile(ctx, fileID)
		if err != nil {
			return domain.BannerAsset{}, err
		}

		ref, err := store.Put(ctx, blob)
		if err != nil {
			return domain.BannerAsset{}, fmt.Errorf("failed to keep banner %d: %w", fileID, err)
		}

		return domain.BannerAsset{
			FileID:      fileID,
			Ref:         ref,
			ContentType: blob.ContentType,
			Size:        len(blob.Data),
		}, nil
	})

	return l.WithRelease(func(asset domain.BannerAsset) {
		if asset.Ref == "" {
			return
		}
		if err := store.Release(context.Background(), asset.Ref); err != nil {
			log.Errorf("❌ Failed to release banner %d: %v", asset.FileID, err)
			return
		}
		log.Debugf("Released banner %d (%s)", asset.FileID, asset.Ref)
	})
}

// NewProductListLoader lists the products of a subcategory. It is keyed by
// the raw route parameter so it can start before the subcategory resolves.
func NewProductListLoader(c client.CatalogClient, timeout time.Duration) *ProductListLoader {
	return New("product list", timeout, func(ctx context.Context, subCategoryID string) ([]domain.Product, error) {
		id, err := strconv.Atoi(subCategoryID)
		if err != nil {
			return nil, &domain.NotFoundError{Resource: "Subcategory", ID: subCategoryID}
		}
		return c.GetProductsBySubCategory(ctx, id)
	})
}

// NewSubCategoryListLoader lists the subcategories, with their products, of a category.
func NewSubCategoryListLoader(c client.CatalogClient, timeout time.Duration) *SubCategoryListLoader {
	return New("subcategory list", timeout, func(ctx context.Context, categoryID int) ([]domain.SubCategory, error) {
		return c.GetSubCategoriesByCategory(ctx, categoryID)
	})
}

// NewTreeLoader fetches the whole category tree. The key is the language the
// tree is requested in, which is the only thing that can change its content.
func NewTreeLoader(c client.CatalogClient, timeout time.Duration) *TreeLoader {
	return New("category tree", timeout, func(ctx context.Context, _ string) ([]domain.Category, error) {
		return c.GetCategoriesWithSubCategories(ctx)
	})
}
