package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/do/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/blob"
	"github.com/uniquefilms/uniquefilms-server/internal/config"
	"github.com/uniquefilms/uniquefilms-server/internal/logger"
)

// BlobStoreHandle is the photo blob store. LocalRoot is set when photos are
// kept on disk and must be served by the HTTP server.
type BlobStoreHandle struct {
	blob.Store
	LocalRoot string
}

// ProvideBlobStore provides the photo blob store for the configured backend.
func ProvideBlobStore(i do.Injector) (*BlobStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Blob.Backend {
	case config.BlobMinio:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		store, err := blob.NewMinioStore(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("minio blob store: %w", err)
		}
		log.Info("Blob store initialized",
			"backend", cfg.Blob.Backend,
			"endpoint", cfg.Blob.MinioEndpoint,
			"bucket", cfg.Blob.MinioBucket,
		)
		return &BlobStoreHandle{Store: store}, nil

	default:
		store, err := blob.NewLocalStore(cfg.Blob.Path, publicURL(cfg)+"/blobs")
		if err != nil {
			return nil, fmt.Errorf("local blob store: %w", err)
		}
		log.Info("Blob store initialized", "backend", config.BlobLocal, "path", cfg.Blob.Path)
		return &BlobStoreHandle{Store: store, LocalRoot: store.Root()}, nil
	}
}

// publicURL is the externally reachable base URL of the server.
func publicURL(cfg *config.Config) string {
	if cfg.Server.PublicURL != "" {
		return strings.TrimRight(cfg.Server.PublicURL, "/")
	}
	return "http://localhost:" + cfg.Server.Port
}
