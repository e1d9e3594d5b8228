package domain

import "github.com/shopspring/decimal"

// Category is one node of the catalog tree as returned by the category endpoint
type Category struct {
	ID                 int           `json:"categoryId"`
	Name               string        `json:"categoryName"`
	FileID             int           `json:"categoryFileId"`             // Thumbnail
	MainBannerFileID   int           `json:"categoryMainBannerFileId"`   // Desktop banner
	MobileBannerFileID int           `json:"categoryMobileBannerFileId"` // Compact banner
	SubCategories      []SubCategory `json:"subCategories"`
}

// SubCategory belongs to exactly one Category. CategoryID and CategoryName are
// denormalized from the parent when the subcategory is resolved for display.
type SubCategory struct {
	ID                 int       `json:"subCategoryId"`
	Name               string    `json:"subCategoryName"`
	MainBannerFileID   int       `json:"subCategoryMainBannerFileId"`
	MobileBannerFileID int       `json:"subCategoryMobileBannerFileId"`
	CategoryID         int       `json:"categoryId,omitempty"`
	CategoryName       string    `json:"categoryName,omitempty"`
	Products           []Product `json:"products,omitempty"`
}

type Product struct {
	ID            int             `json:"productId"`
	Name          string          `json:"name"`
	MainFileID    int             `json:"mainFileId"`
	FirstPrice    decimal.Decimal `json:"firstPrice"`
	FirstQuantity int             `json:"firstQuantity"`
}

// FindCategory returns the category with the given id from a tree snapshot.
func FindCategory(tree []Category, categoryID int) (Category, bool) {
	for _, category := range tree {
		if category.ID == categoryID {
			return category, true
		}
	}
	return Category{}, false
}

// FindSubCategory searches every category of the tree for the subcategory and
// returns it with the parent fields filled in.
func FindSubCategory(tree []Category, subCategoryID int) (SubCategory, bool) {
	for _, category := range tree {
		for _, sub := range category.SubCategories {
			if sub.ID == subCategoryID {
				sub.CategoryID = category.ID
				sub.CategoryName = category.Name
				return sub, true
			}
		}
	}
	return SubCategory{}, false
}

func init() {
	// prices travel as JSON numbers in both directions
	decimal.MarshalJSONWithoutQuotes = true
}
