package flipkart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const resultsPage = `<html><head><title>Linen Shirt - Buy Products Online</title></head><body>
<div data-id="SHTG1"><a class="rPDeLR" href="/linen-shirt/p/itm1?pid=SHTG1&lid=x"><img src="https://rukminim1.flixcart.com/image/128/128/shirt.jpg"/></a>
<div class="syl9yP">Roadster</div><a class="WKTcLC" title="Men Linen Shirt" href="/linen-shirt/p/itm1">Men Linen Shirt</a>
<div class="Nx9bqj">₹1,245</div><div class="XQDdHH">4.2</div></div>
<div data-id="SHTG2"><a href="/oxford/p/itm2"><img data-src="https://rukminim1.flixcart.com/image/128/128/oxford.jpg"/></a>
<div class="_2WkVRV">Arrow</div><div class="_4rR01T">Oxford Shirt</div><div class="_30jeq3">₹2,490</div></div>
<div data-id="AD1"><span>Sponsored banner</span></div>
</body></html>`

func newTestScraper(t *testing.T, page string, query *string) *FlipkartScraper {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if query != nil {
			*query = r.URL.Query().Get("q")
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	s := NewFlipkartScraper(base.NewBaseScraper(5*time.Second, false, zap.NewNop().Sugar()))
	s.BaseURL = srv.URL
	return s
}

func TestSearch_ParsesResultCards(t *testing.T) {
	var q string
	s := newTestScraper(t, resultsPage, &q)

	products, err := s.Search(context.Background(), marketplace.Query{Terms: []string{"linen shirt"}, Category: models.CategoryTops})
	require.NoError(t, err)

	assert.Equal(t, "linen shirt", q)
	require.Len(t, products, 2, "cards without a title are skipped")

	first := products[0]
	assert.Equal(t, "flipkart-SHTG1", first.ID)
	assert.Equal(t, "Men Linen Shirt", first.Name)
	assert.Equal(t, "Roadster", first.Brand)
	assert.InDelta(t, 15.0, first.Price, 0.01)
	assert.Equal(t, 4.2, first.Rating)
	assert.Equal(t, "https://rukminim1.flixcart.com/image/832/832/shirt.jpg", first.ImageURL)
	assert.Equal(t, s.BaseURL+"/linen-shirt/p/itm1", first.URL)
	assert.Equal(t, models.CategoryTops, first.Category)

	second := products[1]
	assert.Equal(t, "Oxford Shirt", second.Name)
	assert.Equal(t, "Arrow", second.Brand)
	assert.InDelta(t, 30.0, second.Price, 0.01)
	assert.Contains(t, second.ImageURL, "/832/832/oxford.jpg")
}

func TestSearch_Limit(t *testing.T) {
	s := newTestScraper(t, resultsPage, nil)

	products, err := s.Search(context.Background(), marketplace.Query{Category: models.CategoryTops, Limit: 1})

	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestSearch_NoResults(t *testing.T) {
	s := newTestScraper(t, `<html><head><title>Flipkart</title></head><body>Sorry, no results found!</body></html>`, nil)

	_, err := s.Search(context.Background(), marketplace.Query{Terms: []string{"xyz"}})
	assert.Error(t, err)
}
