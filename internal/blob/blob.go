// Package blob stores uploaded photo bytes and hands back durable URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/id"
)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("blob: invalid key")

// Store persists blobs by key.
type Store interface {
	// Put writes r under key and returns the durable URL of the object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the durable URL for key without touching storage.
	URL(key string) string
}

// PhotoKey returns a new key "photos/{unixMillis}_{random}".
func PhotoKey(now time.Time) (string, error) {
	suffix, err := id.Suffix(10)
	if err != nil {
		return "", err
	}
	return "photos/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}

// validateKey rejects empty, absolute and parent-relative keys.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
