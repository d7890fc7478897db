package api

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/service"
)

// photoFormField is the multipart field holding the image.
const photoFormField = "photo"

func (s *Server) registerPhotoRoutes() {
	register(s, huma.Operation{
		OperationID:   "uploadPhoto",
		Method:        http.MethodPost,
		Path:          "/api/v1/photos",
		Summary:       "Upload a photo review",
		Description:   "Multipart upload with the image in the \"photo\" field",
		Tags:          []string{"Photos"},
		Security:      bearerSecurity,
		MaxBodyBytes:  service.MaxPhotoBytes + 1<<20,
		DefaultStatus: http.StatusCreated,
	}, s.handleUploadPhoto)

	register(s, huma.Operation{
		OperationID: "listPhotos",
		Method:      http.MethodGet,
		Path:        "/api/v1/photos",
		Summary:     "List my photos",
		Description: "Newest first",
		Tags:        []string{"Photos"},
		Security:    bearerSecurity,
	}, s.handleListPhotos)

	register(s, huma.Operation{
		OperationID:   "deletePhoto",
		Method:        http.MethodDelete,
		Path:          "/api/v1/photos/{id}",
		Summary:       "Delete a photo",
		Tags:          []string{"Photos"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeletePhoto)
}

// UploadPhotoInput is a multipart photo upload.
type UploadPhotoInput struct {
	RawBody multipart.Form
}

// PhotoOutput wraps one photo.
type PhotoOutput struct {
	Body *domain.PhotoReview
}

// PhotosOutput lists photos.
type PhotosOutput struct {
	Body struct {
		Photos []domain.PhotoReview `json:"photos" doc:"Photos, newest first"`
	}
}

// PhotoIDInput names a photo.
type PhotoIDInput struct {
	ID string `path:"id" doc:"Photo id"`
}

func (s *Server) handleUploadPhoto(ctx context.Context, input *UploadPhotoInput) (*PhotoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	files := input.RawBody.File[photoFormField]
	if len(files) == 0 {
		return nil, domainerrors.Validation("photo field is required")
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, domainerrors.Validation("photo could not be read").WithCause(err)
	}
	defer f.Close()

	photo, err := s.services.Photo.Upload(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return &PhotoOutput{Body: photo}, nil
}

func (s *Server) handleListPhotos(ctx context.Context, _ *struct{}) (*PhotosOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	photos, err := s.services.Photo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &PhotosOutput{}
	out.Body.Photos = photos
	return out, nil
}

func (s *Server) handleDeletePhoto(ctx context.Context, input *PhotoIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Photo.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
