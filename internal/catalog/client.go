package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL             = "https://dummyjson.com"
	defaultTimeout             = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

// Catalog is the read-only product source used by the storefront host.
type Catalog interface {
	FetchProductsByCategory(ctx context.Context, category string) []Product
}

// Client reads products from a dummyjson-shaped HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logg       *logger.Logger
	group      singleflight.Group
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the catalog base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a catalog client. A nil logger discards diagnostics.
func NewClient(logg *logger.Logger, opts ...Option) *Client {
	if logg == nil {
		logg = logger.Nop()
	}
	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		logg:       logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// FetchProductsByCategory returns the category listing. Any failure is logged
// and degrades to an empty list so the menu can still render.
func (c *Client) FetchProductsByCategory(ctx context.Context, category string) []Product {
	products, err := c.LookupCategory(ctx, category)
	if err != nil {
		ctx = c.logg.WithField(ctx, "category", category)
		c.logg.Error(ctx, "catalog fetch failed", err)
		return []Product{}
	}
	return products
}

// LookupCategory is FetchProductsByCategory with the error surfaced.
// Concurrent lookups of the same category share one request.
func (c *Client) LookupCategory(ctx context.Context, category string) ([]Product, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	v, err, _ := c.group.Do(trimmed, func() (interface{}, error) {
		return c.fetch(ctx, trimmed)
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]Product)
	out := make([]Product, len(shared))
	copy(out, shared)
	return out, nil
}

func (c *Client) fetch(ctx context.Context, category string) ([]Product, error) {
	endpoint := fmt.Sprintf("%s/products/category/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(category))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	var payload struct {
		Products []Product `json:"products"`
		Total    int       `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	if payload.Products == nil {
		return []Product{}, nil
	}
	return payload.Products, nil
}
