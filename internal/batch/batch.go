// Package batch tags every invocation with an id so that log records from
// one run can be correlated.
package batch

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/ephes/kptncook/internal/log"
)

const ctxKey = "batch_id"

// NewID returns a fresh batch id.
func NewID() string {
	return ulid.Make().String()
}

// WithID attaches a batch id to the context logger.
func WithID(ctx context.Context, id string) context.Context {
	return log.AppendCtx(ctx, slog.String(ctxKey, id))
}
