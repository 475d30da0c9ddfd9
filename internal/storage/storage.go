package storage

import (
	"context"

	"tradeScope/internal/model"
)

// AuditSink records completed operations. Sinks are best-effort; the
// engine never fails an operation because a sink did.
type AuditSink interface {
	PutAuditBatch(ctx context.Context, records []model.AuditRecord) error
}
