package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/storefront/internal/config"
	"catalog/storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) CatalogClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewCatalogClient(config.CatalogConfig{
		BaseURL:              srv.URL,
		Timeout:              timeout,
		MaxRequestsPerSecond: 1000,
		Language:             "en-us",
	})
}

func TestGetCategoriesWithSubCategories(t *testing.T) {
	var gotLanguage, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLanguage = r.Header.Get("Accept-Language")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"categoryId":3,"categoryName":"Kitchen","categoryMainBannerFileId":30,"categoryMobileBannerFileId":31,"subCategories":[{"subCategoryId":12,"subCategoryName":"Pans"}]}]}`))
	}, time.Second)

	categories, err := c.GetCategoriesWithSubCategories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "en-US", gotLanguage)
	assert.Equal(t, "/categories/get-categories-with-sub-categories", gotPath)
	require.Len(t, categories, 1)
	assert.Equal(t, 3, categories[0].ID)
	assert.Equal(t, 30, categories[0].MainBannerFileID)
	require.Len(t, categories[0].SubCategories, 1)
	assert.Equal(t, "Pans", categories[0].SubCategories[0].Name)
}

func TestGetProductsBySubCategoryDecodesPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("subCategoryId"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"productId":1,"name":"Skillet","mainFileId":7,"firstPrice":49.99,"firstQuantity":1}]}`))
	}, time.Second)

	products, err := c.GetProductsBySubCategory(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "49.99", products[0].FirstPrice.String())
}

func TestNonSuccessStatusBecomesFetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"catalog offline"}`))
	}, time.Second)

	_, err := c.GetCategoriesWithSubCategories(context.Background())

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
	assert.Equal(t, "catalog offline", fetchErr.Message)
}

func TestUnsuccessfulEnvelopeBecomesFetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}, time.Second)

	_, err := c.GetSubCategoriesByCategory(context.Background(), 3)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "Failed to fetch subcategories", fetchErr.Message)
}

func TestGetFileReturnsBlob(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/get-file", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}, time.Second)

	blob, err := c.GetFile(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, "image/png", blob.ContentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, blob.Data)
}

func TestGetProductFileSendsThumbnailType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/get-product-file", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("type"))
		w.WriteHeader(http.StatusNotFound)
	}, time.Second)

	_, err := c.GetProductFile(context.Background(), 7)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "Failed to fetch product image", fetchErr.Message)
}

func TestSlowResponseBecomesTimeoutError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.GetCategoriesWithSubCategories(context.Background())

	var timeoutErr *domain.TimeoutError
	assert.True(t, errors.As(err, &timeoutErr), "got %v", err)
}

func TestUnreachableHostBecomesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewCatalogClient(config.CatalogConfig{BaseURL: url, Timeout: time.Second, MaxRequestsPerSecond: 10})

	_, err := c.GetCategoriesWithSubCategories(context.Background())

	var networkErr *domain.NetworkError
	assert.True(t, errors.As(err, &networkErr), "got %v", err)
}

func TestAcceptLanguage(t *testing.T) {
	assert.Equal(t, "en-US", AcceptLanguage(""))
	assert.Equal(t, "ar-SA", AcceptLanguage("ar-sa"))
	assert.Equal(t, "en-US", AcceptLanguage("not a tag!"))
}
