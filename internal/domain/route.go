package domain

import (
	"fmt"
	"strings"
)

// Route holds the path parameters of the catalog pages:
// /category/{categoryId} and /category/{categoryId}/{subcategoryId}
type Route struct {
	CategoryID    string
	SubCategoryID string
}

// ParseRoute extracts the catalog route from a request path. ok is false for
// paths outside /category/.
func ParseRoute(path string) (Route, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "category" || parts[1] == "" {
		return Route{}, false
	}

	route := Route{CategoryID: parts[1]}
	if len(parts) == 3 {
		if parts[2] == "" {
			return Route{}, false
		}
		route.SubCategoryID = parts[2]
	}
	return route, true
}

func (r Route) IsSubCategory() bool {
	return r.SubCategoryID != ""
}

func (r Route) Path() string {
	if r.IsSubCategory() {
		return SubCategoryPath(r.CategoryID, r.SubCategoryID)
	}
	return CategoryPath(r.CategoryID)
}

func CategoryPath(categoryID any) string {
	return fmt.Sprintf("/category/%v", categoryID)
}

func SubCategoryPath(categoryID, subCategoryID any) string {
	return fmt.Sprintf("/category/%v/%v", categoryID, subCategoryID)
}
