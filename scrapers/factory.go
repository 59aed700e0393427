// Package scrapers assembles the marketplace sources enabled by configuration.
package scrapers

import (
	"go.uber.org/zap"

	"github.com/raushankrgupta/wardrobe-stylist/config"
	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers/base"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers/flipkart"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers/myntra"
)

// NewAggregator returns an aggregator with every configured source registered.
// The public demo catalogs are always on; the rest depend on cfg.
func NewAggregator(cfg *config.Config, log *zap.SugaredLogger) *marketplace.Aggregator {
	agg := marketplace.NewAggregator(log, cfg.MarketplaceTimeout)
	client := marketplace.NewHTTPClient(cfg.MarketplaceTimeout)

	// Register sources here
	if cfg.CatalogAPIURL != "" && cfg.CatalogAPIKey != "" {
		agg.Register(marketplace.GroupCatalog,
			marketplace.NewCatalogAPISource(cfg.CatalogAPIURL, cfg.CatalogAPIKey, cfg.CatalogAPIHost, client))
	}
	if cfg.MyntraEnabled || cfg.FlipkartEnabled {
		scraper := base.NewBaseScraper(cfg.MarketplaceTimeout, cfg.MarketplaceHeadless, log)
		if cfg.MyntraEnabled {
			agg.Register(marketplace.GroupCatalog, myntra.NewMyntraScraper(scraper))
		}
		if cfg.FlipkartEnabled {
			agg.Register(marketplace.GroupCatalog, flipkart.NewFlipkartScraper(scraper))
		}
	}
	agg.Register(marketplace.GroupFree, marketplace.NewDummyJSONSource(client))
	agg.Register(marketplace.GroupFree, marketplace.NewFakeStoreSource(client))

	log.Infow("Marketplace sources registered", "sources", agg.SourceNames())
	return agg
}
