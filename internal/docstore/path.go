package docstore

import (
	"strings"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

// keySep separates a collection path from a document id in engine keys,
// so that a prefix scan over "collection|" only sees direct children.
const keySep = "|"

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// splitPath validates p and returns its segments.
func splitPath(p string) ([]string, error) {
	if p == "" {
		return nil, domainerrors.Validation("empty document path")
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" || strings.Contains(s, keySep) || s == "." || s == ".." {
			return nil, domainerrors.Validationf("invalid path segment in %q", p)
		}
	}
	return segs, nil
}

// docKey validates a document path (even number of segments) and returns its
// engine key, parent collection path and id.
func docKey(p string) (key, collection, id string, err error) {
	segs, err := splitPath(p)
	if err != nil {
		return "", "", "", err
	}
	if len(segs)%2 != 0 {
		return "", "", "", domainerrors.Validationf("%q is not a document path", p)
	}
	collection = strings.Join(segs[:len(segs)-1], "/")
	id = segs[len(segs)-1]
	return collection + keySep + id, collection, id, nil
}

// collectionPrefix validates a collection path (odd number of segments) and
// returns the engine key prefix of its documents.
func collectionPrefix(p string) (string, error) {
	segs, err := splitPath(p)
	if err != nil {
		return "", err
	}
	if len(segs)%2 != 1 {
		return "", domainerrors.Validationf("%q is not a collection path", p)
	}
	return p + keySep, nil
}

// pathFromKey converts an engine key back into a document path.
func pathFromKey(key string) (path, id string) {
	i := strings.LastIndex(key, keySep)
	if i < 0 {
		return key, key
	}
	return key[:i] + "/" + key[i+1:], key[i+1:]
}

// PrefixEnd returns the smallest key greater than every key starting with prefix.
// Engines use it for range scans.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
