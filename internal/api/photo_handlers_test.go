package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniquefilms/uniquefilms-server/internal/domain"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := range 32 {
		for y := range 24 {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// photoForm builds a multipart body with data in the given field.
func photoForm(t *testing.T, field string, data []byte) (string, *bytes.Buffer) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "capture.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return "Content-Type: " + w.FormDataContentType(), &body
}

type photoList struct {
	Photos []domain.PhotoReview `json:"photos"`
}

func TestUploadPhoto(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	signed := ts.signUp(t, "ana@example.com", "Ana")
	contentType, body := photoForm(t, "photo", testPNG(t))

	resp := ts.api.Post("/api/v1/photos", bearer(signed.AccessToken), contentType, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	photo := decodeEnvelope[domain.PhotoReview](t, resp.Body.Bytes()).Data
	assert.NotEmpty(t, photo.ID)
	assert.NotEmpty(t, photo.BlurHash)
	require.True(t, strings.HasPrefix(photo.ImageURL, "http://localhost:8080/blobs/"), photo.ImageURL)

	// The blob is on disk and served under /blobs/.
	key := strings.TrimPrefix(photo.ImageURL, "http://localhost:8080/blobs/")
	_, err := os.Stat(filepath.Join(ts.blobRoot, filepath.FromSlash(key)))
	require.NoError(t, err)

	resp = ts.api.Get("/blobs/" + key)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, CacheOneWeek, resp.Header().Get("Cache-Control"))

	resp = ts.api.Get("/api/v1/photos", bearer(signed.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	photos := decodeEnvelope[photoList](t, resp.Body.Bytes()).Data.Photos
	require.Len(t, photos, 1)
	assert.Equal(t, photo.ID, photos[0].ID)
}

func TestUploadPhoto_Rejected(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	signed := ts.signUp(t, "ana@example.com", "Ana")

	t.Run("not an image", func(t *testing.T) {
		contentType, body := photoForm(t, "photo", []byte("plain text"))
		resp := ts.api.Post("/api/v1/photos", bearer(signed.AccessToken), contentType, body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("wrong field", func(t *testing.T) {
		contentType, body := photoForm(t, "image", testPNG(t))
		resp := ts.api.Post("/api/v1/photos", bearer(signed.AccessToken), contentType, body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "photo field is required", decodeEnvelope[any](t, resp.Body.Bytes()).Message)
	})

	t.Run("anonymous", func(t *testing.T) {
		contentType, body := photoForm(t, "photo", testPNG(t))
		resp := ts.api.Post("/api/v1/photos", contentType, body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestDeletePhoto(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	signed := ts.signUp(t, "ana@example.com", "Ana")
	contentType, body := photoForm(t, "photo", testPNG(t))
	resp := ts.api.Post("/api/v1/photos", bearer(signed.AccessToken), contentType, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	photo := decodeEnvelope[domain.PhotoReview](t, resp.Body.Bytes()).Data

	resp = ts.api.Delete("/api/v1/photos/"+photo.ID, bearer(signed.AccessToken))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/photos", bearer(signed.AccessToken))
	assert.Empty(t, decodeEnvelope[photoList](t, resp.Body.Bytes()).Data.Photos)

	resp = ts.api.Delete("/api/v1/photos/"+photo.ID, bearer(signed.AccessToken))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
