package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/config"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore/sqlite"
	"github.com/uniquefilms/uniquefilms-server/internal/logger"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the document store with shutdown capability.
type StoreHandle struct {
	*docstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the document store on the configured engine.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		db   *docstore.Store
		path string
		err  error
	)
	switch cfg.Data.Engine {
	case config.EngineSQLite:
		path = filepath.Join(cfg.Data.Path, "uniquefilms.db")
		db, err = sqlite.Open(path, log.Logger)
	case config.EngineBadger:
		path = filepath.Join(cfg.Data.Path, "db")
		db, err = docstore.OpenBadger(path, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store engine: %s", cfg.Data.Engine)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Document store initialized", "engine", cfg.Data.Engine, "path", path)

	return &StoreHandle{Store: db}, nil
}
