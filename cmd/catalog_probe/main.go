// Command catalog_probe runs one marketplace search against the configured sources and
// prints the merged listings as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raushankrgupta/wardrobe-stylist/config"
	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

type sourceList []string

func (l *sourceList) String() string { return strings.Join(*l, ",") }
func (l *sourceList) Set(v string) error {
	if v = strings.TrimSpace(v); v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var (
		sources  sourceList
		category string
		minPrice float64
		maxPrice float64
		limit    int
		trending bool
		myntra   bool
		flipkart bool
	)
	flag.Var(&sources, "source", "source group to query: catalog or free (repeatable)")
	flag.StringVar(&category, "category", "", "wardrobe category, e.g. Footwear")
	flag.Float64Var(&minPrice, "min", 0, "minimum price in USD")
	flag.Float64Var(&maxPrice, "max", 0, "maximum price in USD")
	flag.IntVar(&limit, "limit", 10, "maximum number of products")
	flag.BoolVar(&trending, "trending", false, "print the trending listings instead of searching")
	flag.BoolVar(&myntra, "myntra", false, "also search the Myntra storefront")
	flag.BoolVar(&flipkart, "flipkart", false, "also search the Flipkart storefront")
	flag.Parse()

	if category != "" && !models.IsValidCategory(category) {
		fmt.Printf("unknown category %q, expected one of %s\n", category, strings.Join(models.Categories, ", "))
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	cfg.MyntraEnabled = cfg.MyntraEnabled || myntra
	cfg.FlipkartEnabled = cfg.FlipkartEnabled || flipkart

	logger, err := utils.NewLogger("development")
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger.Desugar())

	agg := scrapers.NewAggregator(cfg, logger)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MarketplaceTimeout+10*time.Second)
	defer cancel()

	var out interface{}
	if trending {
		out = agg.Trending(ctx)
	} else {
		q := marketplace.Query{
			Terms:    flag.Args(),
			Category: category,
			Sources:  sources,
			Limit:    limit,
		}
		if minPrice > 0 || maxPrice > 0 {
			q.PriceRange = &models.PriceRange{Min: minPrice, Max: maxPrice}
		}
		fmt.Printf("Searching %q\n", q.Text())
		out = agg.SearchProducts(ctx, q)
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
