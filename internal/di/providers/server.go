package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/api"
	"github.com/uniquefilms/uniquefilms-server/internal/archive"
	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/config"
	"github.com/uniquefilms/uniquefilms-server/internal/logger"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(h.Server.Shutdown(ctx), h.api.Shutdown(ctx))
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	blobs := do.MustInvoke[*BlobStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := do.MustInvoke[*catalog.Client](i)
	services := &api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Profile:   do.MustInvoke[*service.ProfileService](i),
		Favorites: do.MustInvoke[*service.FavoritesService](i),
		Discovery: do.MustInvoke[*service.DiscoveryService](i),
		Review:    do.MustInvoke[*service.ReviewService](i),
		Photo:     do.MustInvoke[*service.PhotoService](i),
		Archive:   do.MustInvoke[*archive.Projector](i),
		Catalog:   client,
	}

	handler := api.NewServer(storeHandle.Store, services, sseHandle.Manager, api.Options{
		CORSOrigins:            cfg.Server.CORSOrigins,
		BlobRoot:               blobs.LocalRoot,
		LoginAttemptsPerMinute: cfg.Auth.LoginAttemptsPerMinute,
	}, log.Logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", publicURL(cfg))

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
