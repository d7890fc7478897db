package providers

import (
	"github.com/samber/do/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/config"
	"github.com/uniquefilms/uniquefilms-server/internal/logger"
)

// ProvideCatalogClient provides the rate-limited TMDB client.
// The client implements do.Shutdownable.
func ProvideCatalogClient(i do.Injector) (*catalog.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.TMDB.APIKey == "" {
		log.Warn("TMDB_API_KEY is not set; catalog requests will be rejected")
	}

	client := catalog.New(cfg.TMDB, log.Logger)

	log.Info("Catalog client initialized",
		"base_url", cfg.TMDB.BaseURL,
		"requests_per_second", cfg.TMDB.RequestsPerSecond,
	)

	return client, nil
}
