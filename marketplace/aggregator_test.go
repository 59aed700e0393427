package marketplace

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	name     string
	products []models.MarketplaceProduct
	err      error
	calls    atomic.Int32
	lastQ    Query
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(ctx context.Context, q Query) ([]models.MarketplaceProduct, error) {
	f.calls.Add(1)
	f.lastQ = q
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.MarketplaceProduct, len(f.products))
	copy(out, f.products)
	return out, nil
}

func product(name string, price, rating float64) models.MarketplaceProduct {
	return models.MarketplaceProduct{
		Name:     name,
		Price:    price,
		Rating:   rating,
		ImageURL: "https://cdn.shop.test/" + strings.ReplaceAll(name, " ", "-") + ".jpg",
		URL:      "https://shop.test/" + strings.ReplaceAll(name, " ", "-"),
	}
}

func newTestAggregator(sources map[string][]Source) *Aggregator {
	a := NewAggregator(zap.NewNop().Sugar(), time.Second)
	for _, g := range []string{GroupCatalog, GroupFree} {
		for _, s := range sources[g] {
			a.Register(g, s)
		}
	}
	return a
}

func TestSearchProducts_MergesDedupesAndRanks(t *testing.T) {
	catalog := &fakeSource{name: "catalog", products: []models.MarketplaceProduct{
		product("Leather Loafers Brown Classic", 90, 4.5),
		product("Canvas Sneakers", 40, 4.1),
	}}
	free := &fakeSource{name: "free", products: []models.MarketplaceProduct{
		product("Leather Loafers Brown Classic Edition", 90.4, 4.9), // same 20 rune prefix and whole price
		product("Suede Boots", 120, 4.6),
		product("Running Shoes", 60, 4.2),
	}}
	a := newTestAggregator(map[string][]Source{GroupCatalog: {catalog}, GroupFree: {free}})

	got := a.SearchProducts(context.Background(), Query{Terms: []string{"shoes"}, Category: models.CategoryFootwear})

	require.Len(t, got, 4)
	// 4.5 and 4.6 share the 4.5 bucket, so the cheaper loafers win
	assert.Equal(t, "Leather Loafers Brown Classic", got[0].Name)
	assert.Equal(t, "catalog", got[0].Source)
	assert.Equal(t, "Suede Boots", got[1].Name)
	// 4.1 and 4.2 share the 4.2 bucket
	assert.Equal(t, "Canvas Sneakers", got[2].Name)
	assert.Equal(t, "Running Shoes", got[3].Name)
	for _, p := range got {
		assert.Equal(t, models.CategoryFootwear, p.Category)
	}
}

func TestSearchProducts_FailingSourceUsesFallback(t *testing.T) {
	broken := &fakeSource{name: "catalog_api", err: errors.New("503 upstream")}
	ok := &fakeSource{name: "dummyjson", products: []models.MarketplaceProduct{product("Linen Shirt", 45, 4.2)}}
	a := newTestAggregator(map[string][]Source{GroupCatalog: {broken}, GroupFree: {ok}})

	got := a.SearchProducts(context.Background(), Query{Category: models.CategoryTops})

	sources := map[string]int{}
	for _, p := range got {
		sources[p.Source]++
	}
	assert.Equal(t, 1, sources["dummyjson"])
	assert.Equal(t, len(fallbackCatalog[models.CategoryTops]), sources["catalog_api"])
}

func TestSearchProducts_NoSourcesReturnsCuratedCatalog(t *testing.T) {
	a := newTestAggregator(nil)

	got := a.SearchProducts(context.Background(), Query{Category: models.CategoryDresses, Limit: 2})

	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "curated", p.Source)
		assert.Equal(t, models.CategoryDresses, p.Category)
		assert.NotEmpty(t, p.ImageURL)
	}
}

func TestSearchProducts_PriceRangeFilter(t *testing.T) {
	src := &fakeSource{name: "s", products: []models.MarketplaceProduct{
		product("Cheap Belt", 10, 4),
		product("Mid Belt", 30, 4),
		product("Luxury Belt", 400, 5),
	}}
	a := newTestAggregator(map[string][]Source{GroupFree: {src}})

	got := a.SearchProducts(context.Background(), Query{
		Category:   models.CategoryAccessories,
		PriceRange: &models.PriceRange{Min: 15, Max: 60},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Mid Belt", got[0].Name)
}

func TestSearchProducts_SelectsGroups(t *testing.T) {
	catalog := &fakeSource{name: "catalog", products: []models.MarketplaceProduct{product("A", 10, 4)}}
	free := &fakeSource{name: "free", products: []models.MarketplaceProduct{product("B", 10, 4)}}
	a := newTestAggregator(map[string][]Source{GroupCatalog: {catalog}, GroupFree: {free}})

	got := a.SearchProducts(context.Background(), Query{Sources: []string{"Free"}})

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, int32(0), catalog.calls.Load())
}

func TestSearchProducts_RepairsPlaceholders(t *testing.T) {
	src := &fakeSource{name: "s", products: []models.MarketplaceProduct{{
		Name:     "Wool Scarf",
		Price:    0,
		Rating:   7,
		ImageURL: "https://via.placeholder.com/150",
		URL:      "#",
	}}}
	a := newTestAggregator(map[string][]Source{GroupFree: {src}})

	first := a.SearchProducts(context.Background(), Query{Category: models.CategoryAccessories})
	second := a.SearchProducts(context.Background(), Query{Category: models.CategoryAccessories})

	require.Len(t, first, 1)
	p := first[0]
	assert.Contains(t, fallbackImages[models.CategoryAccessories], p.ImageURL)
	assert.True(t, strings.HasPrefix(p.URL, shoppingSearch))
	assert.Equal(t, midPrice(models.CategoryAccessories), p.Price)
	assert.Equal(t, defaultRating, p.Rating)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, first, second, "repairs are deterministic")
}

func TestFindProducts_UsesColorAndCategory(t *testing.T) {
	src := &fakeSource{name: "s", products: []models.MarketplaceProduct{
		product("Black Pumps", 80, 4.5),
		product("Black Boots", 100, 4.4),
		product("Black Sandals", 50, 4.3),
		product("Black Flats", 45, 4.2),
	}}
	a := newTestAggregator(map[string][]Source{GroupFree: {src}})

	got, err := a.FindProducts(context.Background(), recommend.ProductQuery{
		Category:   models.CategoryFootwear,
		Color:      "Black",
		PriceRange: models.PriceRange{Min: 30, Max: 120},
		Limit:      3,
	})

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "Black shoes", src.lastQ.Text())
}

func TestTrending_CoversEveryCategory(t *testing.T) {
	a := newTestAggregator(nil)

	got := a.Trending(context.Background())

	for _, cat := range TrendingCategories {
		assert.Len(t, got[cat], trendingLimit, cat)
	}
}

func TestRoundedRating(t *testing.T) {
	assert.InDelta(t, 4.5, roundedRating(4.6), 1e-9)
	assert.InDelta(t, 4.5, roundedRating(4.5), 1e-9)
	assert.InDelta(t, 4.8, roundedRating(4.9), 1e-9)
	assert.InDelta(t, 4.2, roundedRating(4.1), 1e-9)
	assert.InDelta(t, 3.9, roundedRating(4.0), 1e-9)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 1299.0, ParsePrice("$1,299.00"))
	assert.Equal(t, 899.0, ParsePrice("Rs. 899"))
	assert.Equal(t, 0.0, ParsePrice("free"))
}
