// Package service holds the application operations behind the HTTP API.
package service

import (
	"context"
	"errors"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/sse"
	"github.com/uniquefilms/uniquefilms-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

// EventEmitter delivers user-scoped live events.
type EventEmitter interface {
	EmitToUser(userID string, event sse.Event)
}

type noopEmitter struct{}

func (noopEmitter) EmitToUser(string, sse.Event) {}

func emitterOrNoop(e EventEmitter) EventEmitter {
	if e == nil {
		return noopEmitter{}
	}
	return e
}

func requireUser(userID, msg string) error {
	if userID == "" {
		return domainerrors.Unauthenticated(msg)
	}
	return nil
}

// storeError keeps domain and context errors as they are and reports
// everything else as a store error.
func storeError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return domainerrors.Wrap(err, domainerrors.CodeStore, msg)
}
