package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewHTTPClient returns the client shared by the JSON sources
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// getJSON performs a GET and decodes a JSON body into out
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("status code error: %d %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func limitOf(q Query) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return defaultLimit
}

// CatalogAPISource searches a RapidAPI style real-time product search API
type CatalogAPISource struct {
	BaseURL string
	APIKey  string
	APIHost string
	Country string
	Client  *http.Client
}

// NewCatalogAPISource creates the catalog API source
func NewCatalogAPISource(baseURL, apiKey, apiHost string, client *http.Client) *CatalogAPISource {
	return &CatalogAPISource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		APIHost: apiHost,
		Country: "us",
		Client:  client,
	}
}

func (s *CatalogAPISource) Name() string { return "catalog_api" }

type catalogResponse struct {
	Status string `json:"status"`
	Data   struct {
		Products []catalogProduct `json:"products"`
	} `json:"data"`
}

type catalogProduct struct {
	ProductID     string   `json:"product_id"`
	Title         string   `json:"product_title"`
	Photos        []string `json:"product_photos"`
	PageURL       string   `json:"product_page_url"`
	Rating        float64  `json:"product_rating"`
	Brand         string   `json:"brand"`
	TypicalPrices struct {
		Low  string `json:"typical_price_range_low"`
		High string `json:"typical_price_range_high"`
	} `json:"typical_price_range"`
	Offer struct {
		Price        string `json:"price"`
		StoreName    string `json:"store_name"`
		OfferPageURL string `json:"offer_page_url"`
	} `json:"offer"`
}

func (s *CatalogAPISource) Search(ctx context.Context, q Query) ([]models.MarketplaceProduct, error) {
	params := url.Values{}
	params.Set("q", q.Text())
	params.Set("country", s.Country)
	params.Set("language", "en")
	params.Set("limit", strconv.Itoa(limitOf(q)))
	if q.PriceRange != nil {
		if q.PriceRange.Min > 0 {
			params.Set("min_price", strconv.FormatFloat(q.PriceRange.Min, 'f', 0, 64))
		}
		if q.PriceRange.Max > 0 {
			params.Set("max_price", strconv.FormatFloat(q.PriceRange.Max, 'f', 0, 64))
		}
	}

	headers := map[string]string{"X-RapidAPI-Key": s.APIKey}
	if s.APIHost != "" {
		headers["X-RapidAPI-Host"] = s.APIHost
	}

	var resp catalogResponse
	if err := getJSON(ctx, s.Client, s.BaseURL+"/search?"+params.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("catalog api search: %w", err)
	}

	out := make([]models.MarketplaceProduct, 0, len(resp.Data.Products))
	for _, p := range resp.Data.Products {
		price := ParsePrice(p.Offer.Price)
		if price == 0 {
			price = ParsePrice(p.TypicalPrices.Low)
		}
		link := p.Offer.OfferPageURL
		if link == "" {
			link = p.PageURL
		}
		brand := p.Brand
		if brand == "" {
			brand = p.Offer.StoreName
		}
		var img string
		if len(p.Photos) > 0 {
			img = p.Photos[0]
		}
		out = append(out, models.MarketplaceProduct{
			ID:       "catalog-" + p.ProductID,
			Name:     p.Title,
			Category: q.Category,
			Price:    price,
			ImageURL: img,
			URL:      link,
			Source:   s.Name(),
			Brand:    brand,
			Rating:   p.Rating,
		})
	}
	return out, nil
}

// DummyJSONSource searches the public dummyjson.com product API
type DummyJSONSource struct {
	BaseURL string
	Client  *http.Client
}

// NewDummyJSONSource creates the DummyJSON source
func NewDummyJSONSource(client *http.Client) *DummyJSONSource {
	return &DummyJSONSource{BaseURL: "https://dummyjson.com", Client: client}
}

func (s *DummyJSONSource) Name() string { return "dummyjson" }

type dummyJSONResponse struct {
	Products []struct {
		ID        int      `json:"id"`
		Title     string   `json:"title"`
		Price     float64  `json:"price"`
		Rating    float64  `json:"rating"`
		Brand     string   `json:"brand"`
		Category  string   `json:"category"`
		Thumbnail string   `json:"thumbnail"`
		Images    []string `json:"images"`
	} `json:"products"`
}

func (s *DummyJSONSource) Search(ctx context.Context, q Query) ([]models.MarketplaceProduct, error) {
	params := url.Values{}
	params.Set("q", q.Text())
	params.Set("limit", strconv.Itoa(limitOf(q)))

	var resp dummyJSONResponse
	if err := getJSON(ctx, s.Client, strings.TrimRight(s.BaseURL, "/")+"/products/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("dummyjson search: %w", err)
	}

	out := make([]models.MarketplaceProduct, 0, len(resp.Products))
	for _, p := range resp.Products {
		img := p.Thumbnail
		if img == "" && len(p.Images) > 0 {
			img = p.Images[0]
		}
		out = append(out, models.MarketplaceProduct{
			ID:       fmt.Sprintf("dummyjson-%d", p.ID),
			Name:     p.Title,
			Category: q.Category,
			Price:    p.Price,
			ImageURL: img,
			Source:   s.Name(),
			Brand:    p.Brand,
			Rating:   p.Rating,
		})
	}
	return out, nil
}

// FakeStoreSource lists products from the public fakestoreapi.com catalog
type FakeStoreSource struct {
	BaseURL string
	Client  *http.Client
}

// NewFakeStoreSource creates the FakeStore source
func NewFakeStoreSource(client *http.Client) *FakeStoreSource {
	return &FakeStoreSource{BaseURL: "https://fakestoreapi.com", Client: client}
}

func (s *FakeStoreSource) Name() string { return "fakestore" }

type fakeStoreProduct struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Image    string  `json:"image"`
	Rating   struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	} `json:"rating"`
}

// fakeStoreCategory maps wardrobe categories onto the store's catalog sections
func fakeStoreCategory(category string) string {
	switch category {
	case models.CategoryAccessories:
		return "jewelery"
	case models.CategoryTops, models.CategoryOuterwear:
		return "men's clothing"
	default:
		return "women's clothing"
	}
}

func (s *FakeStoreSource) Search(ctx context.Context, q Query) ([]models.MarketplaceProduct, error) {
	endpoint := strings.TrimRight(s.BaseURL, "/") + "/products/category/" + url.PathEscape(fakeStoreCategory(q.Category))

	var resp []fakeStoreProduct
	if err := getJSON(ctx, s.Client, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fakestore search: %w", err)
	}

	// Prefer titles that mention a query word; the catalog is small so keep everything otherwise
	words := strings.Fields(strings.ToLower(q.Text()))
	var matched, rest []fakeStoreProduct
	for _, p := range resp {
		if containsAny(strings.ToLower(p.Title), words) {
			matched = append(matched, p)
		} else {
			rest = append(rest, p)
		}
	}

	out := make([]models.MarketplaceProduct, 0, len(resp))
	for _, p := range append(matched, rest...) {
		if len(out) >= limitOf(q) {
			break
		}
		out = append(out, models.MarketplaceProduct{
			ID:       fmt.Sprintf("fakestore-%d", p.ID),
			Name:     p.Title,
			Category: q.Category,
			Price:    p.Price,
			ImageURL: p.Image,
			Source:   s.Name(),
			Rating:   p.Rating.Rate,
		})
	}
	return out, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if len(w) > 2 && strings.Contains(s, w) {
			return true
		}
	}
	return false
}
