// Package marketplace searches external product catalogs and merges their listings
// into one deduplicated, ranked product list. Searches never fail: a source that
// errors is replaced by a curated fallback catalog.
package marketplace

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
)

// Source groups a search can select
const (
	GroupCatalog = "catalog"
	GroupFree    = "free"
)

const (
	defaultLimit   = 20
	defaultTimeout = 8 * time.Second
	trendingLimit  = 4
)

// Query is a product search. An empty Sources list searches every group.
type Query struct {
	Terms      []string
	Category   string
	PriceRange *models.PriceRange
	Sources    []string
	Limit      int
}

// Text is the free-text search string for the query
func (q Query) Text() string {
	var parts []string
	for _, t := range q.Terms {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 && q.Category != "" {
		parts = append(parts, SearchTerm(q.Category))
	}
	return strings.Join(parts, " ")
}

// Source is one external catalog
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]models.MarketplaceProduct, error)
}

type registered struct {
	group  string
	source Source
}

// Aggregator fans a search out to the registered sources and merges the results
type Aggregator struct {
	sources []registered
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewAggregator creates an aggregator with no sources. Each source call is bounded by timeout.
func NewAggregator(log *zap.SugaredLogger, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Aggregator{timeout: timeout, log: log.With("component", "marketplace")}
}

// Register adds a source to a group. Sources are merged in registration order.
func (a *Aggregator) Register(group string, src Source) {
	a.sources = append(a.sources, registered{group: group, source: src})
}

// SourceNames lists the registered source names per group
func (a *Aggregator) SourceNames() map[string][]string {
	out := make(map[string][]string)
	for _, r := range a.sources {
		out[r.group] = append(out[r.group], r.source.Name())
	}
	return out
}

func (a *Aggregator) selected(groups []string) []registered {
	if len(groups) == 0 {
		return a.sources
	}
	var out []registered
	for _, r := range a.sources {
		for _, g := range groups {
			if strings.EqualFold(strings.TrimSpace(g), r.group) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// SearchProducts queries the selected sources concurrently and returns the merged,
// repaired, filtered and ranked listings.
func (a *Aggregator) SearchProducts(ctx context.Context, q Query) []models.MarketplaceProduct {
	sources := a.selected(q.Sources)
	results := make([][]models.MarketplaceProduct, len(sources))

	var g errgroup.Group
	for i, r := range sources {
		g.Go(func() error {
			results[i] = a.searchSource(ctx, r.source, q)
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.MarketplaceProduct
	for _, r := range results {
		merged = append(merged, r...)
	}
	if len(merged) == 0 {
		merged = Fallback(q.Category, "curated")
	}
	return finalize(merged, q)
}

// searchSource runs one source. Errors are logged and replaced by fallback listings.
func (a *Aggregator) searchSource(ctx context.Context, src Source, q Query) []models.MarketplaceProduct {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	products, err := src.Search(ctx, q)
	if err != nil {
		a.log.Warnw("Source search failed, using fallback catalog",
			"source", src.Name(), "query", q.Text(), "error", err)
		return Fallback(q.Category, src.Name())
	}
	a.log.Debugw("Source search", "source", src.Name(), "query", q.Text(),
		"results", len(products), "duration_ms", time.Since(start).Milliseconds())

	for i := range products {
		if products[i].Source == "" {
			products[i].Source = src.Name()
		}
		if products[i].Category == "" {
			products[i].Category = q.Category
		}
	}
	return products
}

// FindProducts looks up products for a missing item suggestion. It never returns an error.
func (a *Aggregator) FindProducts(ctx context.Context, q recommend.ProductQuery) ([]models.MarketplaceProduct, error) {
	pr := q.PriceRange
	return a.SearchProducts(ctx, Query{
		Terms:      []string{q.Color, SearchTerm(q.Category)},
		Category:   q.Category,
		PriceRange: &pr,
		Limit:      q.Limit,
	}), nil
}

// TrendingCategories are the categories shown on the trending page
var TrendingCategories = []string{
	models.CategoryTops,
	models.CategoryBottoms,
	models.CategoryDresses,
	models.CategoryOuterwear,
	models.CategoryFootwear,
	models.CategoryAccessories,
}

// Trending returns a few top ranked products per category
func (a *Aggregator) Trending(ctx context.Context) map[string][]models.MarketplaceProduct {
	lists := make([][]models.MarketplaceProduct, len(TrendingCategories))
	var g errgroup.Group
	for i, cat := range TrendingCategories {
		g.Go(func() error {
			lists[i] = a.SearchProducts(ctx, Query{
				Terms:    []string{"trending", SearchTerm(cat)},
				Category: cat,
				Limit:    trendingLimit,
			})
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string][]models.MarketplaceProduct, len(TrendingCategories))
	for i, cat := range TrendingCategories {
		out[cat] = lists[i]
	}
	return out
}

// SearchTerm is the shopping keyword for a wardrobe category
func SearchTerm(category string) string {
	switch category {
	case models.CategoryTops:
		return "top"
	case models.CategoryBottoms:
		return "pants"
	case models.CategoryDresses:
		return "dress"
	case models.CategoryOuterwear:
		return "jacket"
	case models.CategoryFootwear:
		return "shoes"
	case models.CategoryAccessories:
		return "accessories"
	default:
		return strings.ToLower(category)
	}
}
