package myntra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers/base"
)

const (
	defaultBaseURL = "https://www.myntra.com"
	stateMarker    = "window.__myx ="
	// defaultINRPerUSD converts listed rupee prices to the dollar ranges used elsewhere
	defaultINRPerUSD = 83.0
)

// MyntraScraper searches the Myntra storefront
type MyntraScraper struct {
	*base.BaseScraper
	BaseURL   string
	INRPerUSD float64
}

func NewMyntraScraper(b *base.BaseScraper) *MyntraScraper {
	return &MyntraScraper{
		BaseScraper: b,
		BaseURL:     defaultBaseURL,
		INRPerUSD:   defaultINRPerUSD,
	}
}

func (s *MyntraScraper) Name() string { return "myntra" }

// searchState is the part of the embedded page state holding search results
type searchState struct {
	SearchData struct {
		Results struct {
			Products []struct {
				ProductID      int64   `json:"productId"`
				ProductName    string  `json:"productName"`
				Product        string  `json:"product"`
				Brand          string  `json:"brand"`
				Price          float64 `json:"price"`
				MRP            float64 `json:"mrp"`
				Rating         float64 `json:"rating"`
				PrimaryColour  string  `json:"primaryColour"`
				SearchImage    string  `json:"searchImage"`
				LandingPageURL string  `json:"landingPageUrl"`
			} `json:"products"`
		} `json:"results"`
	} `json:"searchData"`
}

// searchPath turns the query into the storefront's slug search path, e.g. "black-shoes"
func searchPath(q marketplace.Query) string {
	words := strings.Fields(strings.ToLower(q.Text()))
	return url.PathEscape(strings.Join(words, "-"))
}

// Search loads the storefront search page for the query and extracts its listings
func (s *MyntraScraper) Search(ctx context.Context, q marketplace.Query) ([]models.MarketplaceProduct, error) {
	path := searchPath(q)
	if path == "" {
		return nil, fmt.Errorf("empty search query")
	}
	pageURL := strings.TrimRight(s.BaseURL, "/") + "/" + path

	doc, err := s.FetchDocument(ctx, pageURL, func(doc *goquery.Document) bool {
		// Check for the script tag containing data OR rendered product cards
		return strings.Contains(doc.Text(), stateMarker) || doc.Find("li.product-base").Length() > 0
	})
	if err != nil {
		return nil, err
	}

	products := s.fromState(doc, q)
	if len(products) == 0 {
		// Fallback to HTML parsing if the page state is missing
		products = s.fromCards(doc, q)
	}

	limit := q.Limit
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (s *MyntraScraper) fromState(doc *goquery.Document, q marketplace.Query) []models.MarketplaceProduct {
	var jsonStr string
	doc.Find("script").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := sel.Text()
		idx := strings.Index(text, stateMarker)
		if idx < 0 {
			return true
		}
		jsonStr = strings.TrimSuffix(strings.TrimSpace(text[idx+len(stateMarker):]), ";")
		return false
	})
	if jsonStr == "" {
		return nil
	}

	var state searchState
	if err := json.Unmarshal([]byte(jsonStr), &state); err != nil {
		return nil
	}

	var out []models.MarketplaceProduct
	for _, p := range state.SearchData.Results.Products {
		name := p.ProductName
		if name == "" {
			name = p.Product
		}
		out = append(out, models.MarketplaceProduct{
			ID:       fmt.Sprintf("myntra-%d", p.ProductID),
			Name:     name,
			Category: q.Category,
			Color:    p.PrimaryColour,
			Price:    s.toUSD(p.Price),
			ImageURL: p.SearchImage,
			URL:      s.absolute(p.LandingPageURL),
			Source:   s.Name(),
			Brand:    p.Brand,
			Rating:   p.Rating,
		})
	}
	return out
}

func (s *MyntraScraper) fromCards(doc *goquery.Document, q marketplace.Query) []models.MarketplaceProduct {
	var out []models.MarketplaceProduct
	doc.Find("li.product-base").Each(func(i int, card *goquery.Selection) {
		brand := strings.TrimSpace(card.Find(".product-brand").Text())
		name := strings.TrimSpace(card.Find(".product-product").Text())
		if name == "" {
			return
		}
		priceText := card.Find(".product-discountedPrice").First().Text()
		if strings.TrimSpace(priceText) == "" {
			priceText = card.Find(".product-price").First().Text()
		}
		href := card.Find("a").First().AttrOr("href", "")
		img := card.Find("img").First().AttrOr("src", "")

		out = append(out, models.MarketplaceProduct{
			ID:       fmt.Sprintf("myntra-card-%d", i+1),
			Name:     name,
			Category: q.Category,
			Price:    s.toUSD(marketplace.ParsePrice(priceText)),
			ImageURL: img,
			URL:      s.absolute(href),
			Source:   s.Name(),
			Brand:    brand,
		})
	})
	return out
}

func (s *MyntraScraper) toUSD(inr float64) float64 {
	if s.INRPerUSD <= 0 {
		return inr
	}
	return float64(int(inr/s.INRPerUSD*100)) / 100
}

func (s *MyntraScraper) absolute(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
