package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public OpenFoodFacts endpoint.
	DefaultBaseURL = "https://world.openfoodfacts.org"

	// DefaultTimeout bounds every lookup. One attempt, no retry; on expiry
	// the scan degrades to product=null rather than failing.
	DefaultTimeout = 15 * time.Second

	defaultUserAgent = "scanbar/1.0"

	maxSearchPageSize = 100
)

// Client is an OpenFoodFacts HTTP client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint (used by tests and self-hosted
// mirrors).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the per-lookup timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient returns a Client with production defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// offProduct is the subset of the OpenFoodFacts product payload this service
// consumes.
type offProduct struct {
	Code            string `json:"code"`
	ProductName     string `json:"product_name"`
	ProductNameEN   string `json:"product_name_en"`
	GenericName     string `json:"generic_name"`
	Brands          string `json:"brands"`
	Categories      string `json:"categories"`
	ImageURL        string `json:"image_url"`
	ImageFrontURL   string `json:"image_front_url"`
	NutriScoreGrade string `json:"nutriscore_grade"`
	Quantity        string `json:"quantity"`
	ServingSize     string `json:"serving_size"`
	IngredientsText string `json:"ingredients_text"`
	Allergens       string `json:"allergens"`
	Nutriments      struct {
		EnergyKcal    float64 `json:"energy-kcal_100g"`
		Fat           float64 `json:"fat_100g"`
		SaturatedFat  float64 `json:"saturated-fat_100g"`
		Carbohydrates float64 `json:"carbohydrates_100g"`
		Sugars        float64 `json:"sugars_100g"`
		Fiber         float64 `json:"fiber_100g"`
		Proteins      float64 `json:"proteins_100g"`
		Salt          float64 `json:"salt_100g"`
		Sodium        float64 `json:"sodium_100g"`
	} `json:"nutriments"`
}

func (p *offProduct) toRecord(code string) *Record {
	name := p.ProductName
	if name == "" {
		name = p.ProductNameEN
	}
	imageURL := p.ImageURL
	if imageURL == "" {
		imageURL = p.ImageFrontURL
	}
	recCode := p.Code
	if recCode == "" {
		recCode = code
	}
	return &Record{
		Code:            recCode,
		Name:            name,
		GenericName:     p.GenericName,
		Brands:          p.Brands,
		Categories:      p.Categories,
		ImageURL:        imageURL,
		NutriScoreGrade: p.NutriScoreGrade,
		Quantity:        p.Quantity,
		ServingSize:     p.ServingSize,
		IngredientsText: p.IngredientsText,
		Allergens:       p.Allergens,
		Nutriments: Nutriments{
			EnergyKcal:    p.Nutriments.EnergyKcal,
			Fat:           p.Nutriments.Fat,
			SaturatedFat:  p.Nutriments.SaturatedFat,
			Carbohydrates: p.Nutriments.Carbohydrates,
			Sugars:        p.Nutriments.Sugars,
			Fiber:         p.Nutriments.Fiber,
			Proteins:      p.Nutriments.Proteins,
			Salt:          p.Nutriments.Salt,
			Sodium:        p.Nutriments.Sodium,
		},
	}
}

// Resolve fetches the product record for a barcode. Returns ErrNotFound when
// the API reports no such product; any transport or server failure is
// returned as-is so callers can distinguish "unreachable" from "absent".
func (c *Client) Resolve(ctx context.Context, code string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building product request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product lookup: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Status  int        `json:"status"`
		Product offProduct `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding product response: %w", err)
	}
	if payload.Status == 0 {
		return nil, ErrNotFound
	}
	return payload.Product.toRecord(code), nil
}

// Search performs a free-text product search. The page size is clamped to
// the API maximum of 100 and the page floor is 1.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (*SearchResult, error) {
	if pageSize <= 0 || pageSize > maxSearchPageSize {
		pageSize = maxSearchPageSize
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	endpoint := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product search: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Count    int          `json:"count"`
		Page     int          `json:"page"`
		PageSize int          `json:"page_size"`
		Products []offProduct `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	result := &SearchResult{
		Count:    payload.Count,
		Page:     payload.Page,
		PageSize: payload.PageSize,
		Products: make([]Record, 0, len(payload.Products)),
	}
	for i := range payload.Products {
		p := &payload.Products[i]
		// Skip entries with no code or name; they are unusable downstream.
		if p.Code == "" || (p.ProductName == "" && p.ProductNameEN == "") {
			continue
		}
		result.Products = append(result.Products, *p.toRecord(p.Code))
	}
	return result, nil
}
