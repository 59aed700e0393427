package marketplace

import (
	"fmt"
	"hash/fnv"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

const (
	dedupeNameRunes = 20
	ratingBucket    = 0.3
	defaultRating   = 4.0
	shoppingSearch  = "https://www.google.com/search?tbm=shop&q="
)

var placeholderMarkers = []string{"placeholder", "example.com", "dummyimage", "via.placeholder", "no-image", "noimage"}

// finalize dedupes, repairs, filters, sorts and truncates merged listings
func finalize(products []models.MarketplaceProduct, q Query) []models.MarketplaceProduct {
	products = dedupe(products)
	for i := range products {
		repair(&products[i], q.Category)
	}
	if q.PriceRange != nil {
		products = filterPrice(products, *q.PriceRange)
	}
	rank(products)

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(products) > limit {
		products = products[:limit]
	}
	return products
}

// dedupeKey is the lower-cased name prefix plus the whole part of the price
func dedupeKey(p models.MarketplaceProduct) string {
	name := []rune(strings.ToLower(strings.TrimSpace(p.Name)))
	if len(name) > dedupeNameRunes {
		name = name[:dedupeNameRunes]
	}
	return fmt.Sprintf("%s|%d", string(name), int(p.Price))
}

// dedupe keeps the first listing of every key
func dedupe(products []models.MarketplaceProduct) []models.MarketplaceProduct {
	seen := make(map[string]bool, len(products))
	out := make([]models.MarketplaceProduct, 0, len(products))
	for _, p := range products {
		k := dedupeKey(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

func isPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "#" {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// repair fills in missing or placeholder fields with deterministic values
func repair(p *models.MarketplaceProduct, category string) {
	if p.Category == "" {
		p.Category = category
	}
	key := dedupeKey(*p)
	if isPlaceholder(p.ImageURL) {
		p.ImageURL = fallbackImage(p.Category, key)
	}
	if isPlaceholder(p.URL) {
		p.URL = shoppingSearch + url.QueryEscape(p.Name)
	}
	if p.Price <= 0 || math.IsNaN(p.Price) {
		p.Price = midPrice(p.Category)
	}
	if p.Rating <= 0 || p.Rating > 5 || math.IsNaN(p.Rating) {
		p.Rating = defaultRating
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("%s-%08x", strings.ToLower(p.Source), hashString(key))
	}
}

func filterPrice(products []models.MarketplaceProduct, pr models.PriceRange) []models.MarketplaceProduct {
	out := products[:0]
	for _, p := range products {
		if pr.Contains(p.Price) {
			out = append(out, p)
		}
	}
	return out
}

// roundedRating buckets ratings so near-equal ones sort by price instead
func roundedRating(r float64) float64 {
	return math.Round(r/ratingBucket) * ratingBucket
}

// rank sorts by bucketed rating descending, then price ascending
func rank(products []models.MarketplaceProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		ri, rj := roundedRating(products[i].Rating), roundedRating(products[j].Rating)
		if math.Abs(ri-rj) > 1e-9 {
			return ri > rj
		}
		return products[i].Price < products[j].Price
	})
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

var priceDigits = regexp.MustCompile(`[0-9][0-9,]*(\.[0-9]+)?`)

// ParsePrice extracts the first number from strings like "$1,299.00" or "Rs. 899"
func ParsePrice(s string) float64 {
	m := priceDigits.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
