package sse

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

// ArchiveSubscriber opens callback subscriptions to a user's archive.
type ArchiveSubscriber interface {
	SubscribeFunc(ctx context.Context, userID string, onUpdate func([]domain.ArchiveEntry), onError func(error)) (func(), error)
}

// ArchiveHandler streams a user's archive at GET /api/v1/archive/stream.
// Every change produces an "archive" frame holding the whole list, newest
// first. A failure produces one "error" frame and ends the stream.
type ArchiveHandler struct {
	projector         ArchiveSubscriber
	resolveUser       UserResolver
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(projector ArchiveSubscriber, resolveUser UserResolver, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		projector:         projector,
		resolveUser:       resolveUser,
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

func (h *ArchiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	ctx := r.Context()

	// Latest list wins when the writer falls behind.
	updates := make(chan []domain.ArchiveEntry, 1)
	failures := make(chan error, 1)

	unsubscribe, err := h.projector.SubscribeFunc(ctx, userID,
		func(entries []domain.ArchiveEntry) {
			select {
			case <-updates:
			default:
			}
			updates <- entries
		},
		func(err error) {
			failures <- err
		},
	)
	if err != nil {
		status := http.StatusInternalServerError
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			status = domainErr.HTTPStatus()
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer unsubscribe()

	s, err := openStream(w, h.logger)
	if err != nil {
		h.logger.Error("failed to open archive stream", slog.String("error", err.Error()))
		return
	}

	logger := h.logger.With(slog.String("user_id", userID))
	heartbeatTicker := time.NewTicker(h.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case entries := <-updates:
			if err := s.send(EventArchive, entries); err != nil {
				logger.Info("archive client disconnected during send")
				return
			}

		case err := <-failures:
			if ctx.Err() != nil {
				return
			}
			logger.Warn("archive subscription failed", slog.String("error", err.Error()))
			_ = s.send(EventError, errorData(err))
			return

		case <-heartbeatTicker.C:
			heartbeat := NewHeartbeatEvent()
			if err := s.send(heartbeat.Type, heartbeat); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func errorData(err error) ErrorEventData {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return ErrorEventData{Code: string(domainErr.Code), Message: domainErr.Message}
	}
	return ErrorEventData{Code: string(domainerrors.CodeStore), Message: "archive unavailable"}
}
