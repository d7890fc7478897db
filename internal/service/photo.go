package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/blob"
	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

// MaxPhotoBytes bounds a photo upload.
const MaxPhotoBytes = 10 << 20

// PhotoService stores photo reviews: the bytes in blob storage and the
// metadata under users/{uid}/photos.
type PhotoService struct {
	store  *docstore.Store
	blobs  blob.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewPhotoService creates a photo service.
func NewPhotoService(store *docstore.Store, blobs blob.Store, logger *slog.Logger) *PhotoService {
	return &PhotoService{
		store:  store,
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
	}
}

// Upload validates an image, stores it and records a photo review document.
func (s *PhotoService) Upload(ctx context.Context, userID string, r io.Reader) (*domain.PhotoReview, error) {
	if err := requireUser(userID, "sign in to upload photos"); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, domainerrors.Validation("photo is empty")
	}
	if len(data) > MaxPhotoBytes {
		return nil, domainerrors.Validationf("photo must be at most %d MB", MaxPhotoBytes>>20)
	}

	img, err := blob.DecodeImage(data)
	if err != nil {
		return nil, domainerrors.Validation("photo must be a JPEG, PNG, GIF or WebP image").WithCause(err)
	}

	hash, err := blob.ComputeBlurHash(img.Img)
	if err != nil {
		// The placeholder is cosmetic.
		if s.logger != nil {
			s.logger.Warn("Failed to compute blurhash", "user_id", userID, "error", err)
		}
		hash = ""
	}

	key, err := blob.PhotoKey(s.now())
	if err != nil {
		return nil, fmt.Errorf("generate photo key: %w", err)
	}

	url, err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), img.ContentType)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStore, "store photo")
	}

	path, err := s.store.Add(ctx, domain.PhotoCollection(userID), map[string]any{
		"imageUrl":  url,
		"blobKey":   key,
		"blurHash":  hash,
		"userId":    userID,
		"type":      domain.PhotoReviewType,
		"createdAt": docstore.ServerTimestamp,
	})
	if err != nil {
		s.deleteBlob(ctx, key)
		return nil, storeError(err, "save photo")
	}

	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, storeError(err, "load photo")
	}

	if s.logger != nil {
		s.logger.Info("Photo uploaded", "user_id", userID, "key", key, "bytes", len(data))
	}
	return decodePhoto(doc)
}

// List returns the user's photos, newest first.
func (s *PhotoService) List(ctx context.Context, userID string) ([]domain.PhotoReview, error) {
	if err := requireUser(userID, "sign in to see your photos"); err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, domain.PhotoCollection(userID), docstore.Query{
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, storeError(err, "list photos")
	}

	photos := make([]domain.PhotoReview, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePhoto(doc)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, nil
}

// Delete removes the photo document and then its blob.
func (s *PhotoService) Delete(ctx context.Context, userID, photoID string) error {
	if err := requireUser(userID, "sign in to delete photos"); err != nil {
		return err
	}
	if photoID == "" {
		return domainerrors.Validation("photo id is required")
	}

	path := docstore.Join(domain.PhotoCollection(userID), photoID)
	doc, err := s.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("photo not found")
		}
		return storeError(err, "load photo")
	}
	photo, err := decodePhoto(doc)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, path); err != nil {
		return storeError(err, "delete photo")
	}
	if photo.BlobKey != "" {
		s.deleteBlob(ctx, photo.BlobKey)
	}
	return nil
}

// deleteBlob removes an orphaned blob. Failures are logged.
func (s *PhotoService) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && s.logger != nil {
		s.logger.Warn("Failed to delete photo blob", "key", key, "error", err)
	}
}

func decodePhoto(doc *docstore.Document) (*domain.PhotoReview, error) {
	var p domain.PhotoReview
	if err := doc.DataTo(&p); err != nil {
		return nil, storeError(err, "decode photo")
	}
	p.ID = doc.ID
	return &p, nil
}
