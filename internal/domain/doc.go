// Package domain holds the document and catalog types shared across the server.
package domain
