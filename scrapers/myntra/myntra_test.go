package myntra

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

const statePage = `<html><head><title>Black Shoes</title></head><body>
<script>window.__myx = {"searchData":{"results":{"products":[
{"productId":101,"productName":"Men Black Leather Derbys","brand":"Red Tape","price":2490,"rating":4.3,"primaryColour":"Black","searchImage":"https://assets.myntassets.com/101.jpg","landingPageUrl":"casual-shoes/red-tape/101/buy"},
{"productId":102,"product":"Women Black Sneakers","brand":"Puma","price":4150,"rating":4.1,"searchImage":"https://assets.myntassets.com/102.jpg","landingPageUrl":"sneakers/puma/102/buy"}
]}}};</script>
</body></html>`

const cardsPage = `<html><head><title>Belts</title></head><body><ul>
<li class="product-base"><a href="belts/hidesign/201/buy"><img src="https://assets.myntassets.com/201.jpg"/>
<h3 class="product-brand">Hidesign</h3><h4 class="product-product">Leather Belt</h4>
<div class="product-price"><span class="product-discountedPrice">Rs. 1,660</span></div></a></li>
</ul></body></html>`

func newTestScraper(t *testing.T, page string, seen *string) *MyntraScraper {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.Path
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	s := NewMyntraScraper(base.NewBaseScraper(5*time.Second, false, zap.NewNop().Sugar()))
	s.BaseURL = srv.URL
	s.INRPerUSD = 83
	return s
}

func TestSearch_ParsesPageState(t *testing.T) {
	var path string
	s := newTestScraper(t, statePage, &path)

	products, err := s.Search(context.Background(), marketplace.Query{
		Terms:    []string{"Black", "shoes"},
		Category: models.CategoryFootwear,
	})
	require.NoError(t, err)

	assert.Equal(t, "/black-shoes", path)
	require.Len(t, products, 2)
	assert.Equal(t, "myntra-101", products[0].ID)
	assert.Equal(t, "Men Black Leather Derbys", products[0].Name)
	assert.Equal(t, "Red Tape", products[0].Brand)
	assert.Equal(t, "Black", products[0].Color)
	assert.InDelta(t, 30.0, products[0].Price, 0.01)
	assert.Equal(t, s.BaseURL+"/casual-shoes/red-tape/101/buy", products[0].URL)
	assert.Equal(t, models.CategoryFootwear, products[0].Category)
	assert.Equal(t, "Women Black Sneakers", products[1].Name, "falls back to the product field")
}

func TestSearch_FallsBackToProductCards(t *testing.T) {
	s := newTestScraper(t, cardsPage, nil)

	products, err := s.Search(context.Background(), marketplace.Query{Category: models.CategoryAccessories, Limit: 3})
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "Leather Belt", products[0].Name)
	assert.Equal(t, "Hidesign", products[0].Brand)
	assert.InDelta(t, 20.0, products[0].Price, 0.01)
	assert.Equal(t, "https://assets.myntassets.com/201.jpg", products[0].ImageURL)
}

func TestSearch_RejectsPagesWithoutListings(t *testing.T) {
	s := newTestScraper(t, `<html><head><title>Access Denied</title></head><body>blocked</body></html>`, nil)

	_, err := s.Search(context.Background(), marketplace.Query{Terms: []string{"dress"}})
	assert.Error(t, err)
}
