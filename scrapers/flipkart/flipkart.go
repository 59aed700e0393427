package flipkart

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers/base"
)

const (
	defaultBaseURL   = "https://www.flipkart.com"
	defaultINRPerUSD = 83.0
)

// Class names change between storefront releases; old and new are tried in order.
var (
	titleSelectors  = []string{"a.WKTcLC", "div.KzDlHZ", "a.wjcEIp", "div._4rR01T", "a.s1Q9rs", "a.IRpwTa"}
	priceSelectors  = []string{"div.Nx9bqj", "div._30jeq3"}
	brandSelectors  = []string{"div.syl9yP", "div._2WkVRV"}
	ratingSelectors = []string{"div.XQDdHH", "div._3LWZlK"}
)

type FlipkartScraper struct {
	*base.BaseScraper
	BaseURL   string
	INRPerUSD float64
}

func NewFlipkartScraper(b *base.BaseScraper) *FlipkartScraper {
	return &FlipkartScraper{
		BaseScraper: b,
		BaseURL:     defaultBaseURL,
		INRPerUSD:   defaultINRPerUSD,
	}
}

func (s *FlipkartScraper) Name() string { return "flipkart" }

// Search loads the storefront search results for the query
func (s *FlipkartScraper) Search(ctx context.Context, q marketplace.Query) ([]models.MarketplaceProduct, error) {
	text := q.Text()
	if text == "" {
		return nil, fmt.Errorf("empty search query")
	}
	pageURL := strings.TrimRight(s.BaseURL, "/") + "/search?q=" + url.QueryEscape(text)

	doc, err := s.FetchDocument(ctx, pageURL, func(doc *goquery.Document) bool {
		return base.IsValidDocument(doc) && doc.Find("div[data-id]").Length() > 0
	})
	if err != nil {
		return nil, err
	}

	var products []models.MarketplaceProduct
	doc.Find("div[data-id]").Each(func(i int, card *goquery.Selection) {
		if q.Limit > 0 && len(products) >= q.Limit {
			return
		}
		p, ok := s.parseCard(card, q)
		if ok {
			products = append(products, p)
		}
	})
	return products, nil
}

func (s *FlipkartScraper) parseCard(card *goquery.Selection, q marketplace.Query) (models.MarketplaceProduct, bool) {
	link := card.Find(`a[href*="/p/"]`).First()
	name := firstText(card, titleSelectors)
	if name == "" {
		name = strings.TrimSpace(link.AttrOr("title", ""))
	}
	if name == "" {
		return models.MarketplaceProduct{}, false
	}

	rating, _ := strconv.ParseFloat(firstText(card, ratingSelectors), 64)

	// Images are lazy loaded; thumbnails are upscaled like the product page ones
	img := card.Find("img").First()
	src := img.AttrOr("src", img.AttrOr("data-src", ""))
	src = strings.Replace(src, "/128/128/", "/832/832/", 1)

	return models.MarketplaceProduct{
		ID:       "flipkart-" + card.AttrOr("data-id", ""),
		Name:     name,
		Category: q.Category,
		Price:    s.toUSD(marketplace.ParsePrice(firstText(card, priceSelectors))),
		ImageURL: src,
		URL:      s.absolute(link.AttrOr("href", "")),
		Source:   s.Name(),
		Brand:    firstText(card, brandSelectors),
		Rating:   rating,
	}, true
}

func firstText(sel *goquery.Selection, selectors []string) string {
	for _, css := range selectors {
		if t := strings.TrimSpace(sel.Find(css).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func (s *FlipkartScraper) toUSD(inr float64) float64 {
	if s.INRPerUSD <= 0 {
		return inr
	}
	return float64(int(inr/s.INRPerUSD*100)) / 100
}

func (s *FlipkartScraper) absolute(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	// drop tracking parameters
	if i := strings.Index(href, "?"); i >= 0 {
		href = href[:i]
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
