package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// bearerSecurity marks operations that need an access token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// register adds an operation whose service errors are mapped to API errors.
func register[I, O any](s *Server, op huma.Operation, handler func(context.Context, *I) (*O, error)) {
	huma.Register(s.api, op, func(ctx context.Context, input *I) (*O, error) {
		out, err := handler(ctx, input)
		if err != nil {
			if apiErr := toAPIError(err); apiErr != nil {
				if ae, ok := apiErr.(*APIError); ok && ae.status >= 500 {
					s.logger.Error("Request failed", "operation", op.OperationID, "error", err)
				}
				return nil, apiErr
			}
		}
		return out, nil
	})
}
