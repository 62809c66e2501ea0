package proxy

import (
	"context"

	"github.com/gluk-w/ocr-gateway/internal/keys"
)

type contextKey string

const recordKey contextKey = "apiKeyRecord"

func withRecord(ctx context.Context, rec keys.Record) context.Context {
	return context.WithValue(ctx, recordKey, rec)
}

// RecordFromContext returns the authenticated key record set by AuthMiddleware.
func RecordFromContext(ctx context.Context) (keys.Record, bool) {
	rec, ok := ctx.Value(recordKey).(keys.Record)
	return rec, ok
}
