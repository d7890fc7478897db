// Package id generates identifiers for documents, sessions and blobs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated document IDs.
const (
	PrefixUser    = "usr"
	PrefixReview  = "rev"
	PrefixPhoto   = "pho"
	PrefixSession = "ses"
	PrefixDoc     = "doc"
)

// suffixAlphabet is lowercase alphanumeric so blob keys stay safe in object-store paths.
const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "rev-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Suffix returns a random lowercase alphanumeric string of length n.
func Suffix(n int) (string, error) {
	s, err := gonanoid.Generate(suffixAlphabet, n)
	if err != nil {
		return "", fmt.Errorf("generate suffix: %w", err)
	}
	return s, nil
}
