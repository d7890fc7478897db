package providers

import (
	"github.com/samber/do/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/archive"
	"github.com/uniquefilms/uniquefilms-server/internal/auth"
	"github.com/uniquefilms/uniquefilms-server/internal/catalog"
	"github.com/uniquefilms/uniquefilms-server/internal/favorites"
	"github.com/uniquefilms/uniquefilms-server/internal/logger"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, sseHandle.Manager, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideFavoritesSynchronizer provides the favorites map and archive synchronizer.
func ProvideFavoritesSynchronizer(i do.Injector) (*favorites.Synchronizer, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return favorites.New(storeHandle.Store, log.Logger), nil
}

// ProvideArchiveProjector provides the live archive projector.
func ProvideArchiveProjector(i do.Injector) (*archive.Projector, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return archive.NewProjector(archive.StoreSource{Store: storeHandle.Store}, log.Logger), nil
}

// ProvideFavoritesService provides the favorites service.
func ProvideFavoritesService(i do.Injector) (*service.FavoritesService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sync := do.MustInvoke[*favorites.Synchronizer](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFavoritesService(storeHandle.Store, sync, sseHandle.Manager, log.Logger), nil
}

// ProvideDiscoveryService provides the home feed and movie page service.
func ProvideDiscoveryService(i do.Injector) (*service.DiscoveryService, error) {
	client := do.MustInvoke[*catalog.Client](i)
	sync := do.MustInvoke[*favorites.Synchronizer](i)
	profiles := do.MustInvoke[*service.ProfileService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDiscoveryService(client, sync, profiles, log.Logger), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*catalog.Client](i)
	profiles := do.MustInvoke[*service.ProfileService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, client, profiles, log.Logger), nil
}

// ProvidePhotoService provides the photo review service.
func ProvidePhotoService(i do.Injector) (*service.PhotoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobs := do.MustInvoke[*BlobStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPhotoService(storeHandle.Store, blobs.Store, log.Logger), nil
}
