package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"catalog/storefront/internal/config"
	"catalog/storefront/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/text/language"
	"resty.dev/v3"
)

const (
	categoriesPath         = "/categories/get-categories-with-sub-categories"
	subCategoriesPath      = "/categories/get-sub-categories-with-products"
	productsPath           = "/products/get-products-by-sub-category"
	filePath               = "/files/get-file"
	productFilePath        = "/files/get-product-file"
	productFileThumbnail   = "2"
	defaultAcceptLanguage  = "en-US"
	defaultRequestsPerSecs = 50
)

type CatalogClient interface {
	GetCategoriesWithSubCategories(ctx context.Context) ([]domain.Category, error)
	GetSubCategoriesByCategory(ctx context.Context, categoryID int) ([]domain.SubCategory, error)
	GetProductsBySubCategory(ctx context.Context, subCategoryID int) ([]domain.Product, error)
	GetFile(ctx context.Context, fileID int) (*domain.Blob, error)
	GetProductFile(ctx context.Context, fileID int) (*domain.Blob, error)
}

// envelope is the JSON wrapper every catalog endpoint answers with
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type catalogClient struct {
	rl         ratelimit.Limiter
	config     config.CatalogConfig
	httpClient *resty.Client
	language   string
}

func NewCatalogClient(cfg config.CatalogConfig) CatalogClient {
	lang := AcceptLanguage(cfg.Language)

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "*/*").
		SetHeader("Accept-Language", lang)

	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecs
	}

	log.Infof("🔗 Catalog client targeting %s (Accept-Language: %s)", cfg.BaseURL, lang)

	return &catalogClient{
		rl:         ratelimit.New(rps),
		config:     cfg,
		httpClient: client,
		language:   lang,
	}
}

// AcceptLanguage normalizes a configured language tag, falling back to en-US.
func AcceptLanguage(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return defaultAcceptLanguage
	}
	tag, err := language.Parse(raw)
	if err != nil {
		log.Warnf("⚠️ Invalid catalog language %q, using %s: %v", raw, defaultAcceptLanguage, err)
		return defaultAcceptLanguage
	}
	return tag.String()
}

func (c *catalogClient) GetCategoriesWithSubCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := getJSON[[]domain.Category](ctx, c, categoriesPath, nil, "Failed to fetch categories")
	if err != nil {
		return nil, err
	}

	log.Debugf("Fetched category tree with %d categories", len(categories))
	return categories, nil
}

func (c *catalogClient) GetSubCategoriesByCategory(ctx context.Context, categoryID int) ([]domain.SubCategory, error) {
	params := map[string]string{"categoryId": strconv.Itoa(categoryID)}
	subCategories, err := getJSON[[]domain.SubCategory](ctx, c, subCategoriesPath, params, "Failed to fetch subcategories")
	if err != nil {
		return nil, err
	}

	log.Debugf("Fetched %d subcategories for category %d", len(subCategories), categoryID)
	return subCategories, nil
}

func (c *catalogClient) GetProductsBySubCategory(ctx context.Context, subCategoryID int) ([]domain.Product, error) {
	params := map[string]string{"subCategoryId": strconv.Itoa(subCategoryID)}
	products, err := getJSON[[]domain.Product](ctx, c, productsPath, params, "Failed to fetch products")
	if err != nil {
		return nil, err
	}

	log.Debugf("Fetched %d products for subcategory %d", len(products), subCategoryID)
	return products, nil
}

func (c *catalogClient) GetFile(ctx context.Context, fileID int) (*domain.Blob, error) {
	params := map[string]string{"id": strconv.Itoa(fileID)}
	return c.getBlob(ctx, filePath, params, "Failed to fetch banner image")
}

func (c *catalogClient) GetProductFile(ctx context.Context, fileID int) (*domain.Blob, error) {
	params := map[string]string{
		"id":   strconv.Itoa(fileID),
		"type": productFileThumbnail,
	}
	return c.getBlob(ctx, productFilePath, params, "Failed to fetch product image")
}

func getJSON[T any](ctx context.Context, c *catalogClient, path string, params map[string]string, failure string) (T, error) {
	var zero T

	resp, err := c.do(ctx, path, params)
	if err != nil {
		return zero, err
	}

	var body envelope[T]
	decodeErr := json.Unmarshal(resp.Bytes(), &body)

	if resp.IsError() {
		return zero, &domain.FetchError{Status: resp.StatusCode(), Message: firstNonEmpty(body.Message, failure)}
	}
	if decodeErr != nil {
		return zero, &domain.FetchError{Status: resp.StatusCode(), Message: fmt.Sprintf("%s: invalid response body", failure)}
	}
	if !body.Success {
		return zero, &domain.FetchError{Status: resp.StatusCode(), Message: firstNonEmpty(body.Message, failure)}
	}

	return body.Data, nil
}

func (c *catalogClient) getBlob(ctx context.Context, path string, params map[string]string, failure string) (*domain.Blob, error) {
	resp, err := c.do(ctx, path, params)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, &domain.FetchError{Status: resp.StatusCode(), Message: failure}
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &domain.Blob{Data: resp.Bytes(), ContentType: contentType}, nil
}

func (c *catalogClient) do(ctx context.Context, path string, params map[string]string) (*resty.Response, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, classify(err, c.config.Timeout)
	}

	return resp, nil
}

// classify maps transport failures onto the domain error taxonomy
func classify(err error, timeout time.Duration) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.TimeoutError{After: timeout}
	}
	return &domain.NetworkError{Err: err}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
