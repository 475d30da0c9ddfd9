package storage

import (
	"context"
	"errors"

	"tradeScope/internal/model"
)

// MultiSink fans records out to several sinks.
type MultiSink []AuditSink

func (m MultiSink) PutAuditBatch(ctx context.Context, records []model.AuditRecord) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PutAuditBatch(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
