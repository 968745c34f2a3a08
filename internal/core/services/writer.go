package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// WriteResult reports the outcome of reconciling one batch.
type WriteResult struct {
	Created int
	Updated int
	Failed  int
}

// ReconciliationWriter turns a batch of fetched records into create/update
// operations against the record store. Bulk operations are attempted first;
// on bulk failure the affected sub-batch falls back to per-record writes so
// a single bad record cannot lose the rest of the batch.
type ReconciliationWriter struct {
	store  driven.RecordStore
	logger *slog.Logger
}

// NewReconciliationWriter creates a reconciliation writer.
func NewReconciliationWriter(store driven.RecordStore, logger *slog.Logger) *ReconciliationWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationWriter{store: store, logger: logger}
}

// Write reconciles a batch for one source. Records whose external id exists
// are updated, unseen ids are inserted. Replace mode additionally clears
// stored fields absent from the incoming record. Only store-level failures
// (the existence lookup) return an error; individual record failures are
// counted and absorbed.
func (w *ReconciliationWriter) Write(
	ctx context.Context,
	source, entityType string,
	records []*domain.ExternalRecord,
	mode domain.WriteMode,
) (WriteResult, error) {
	var result WriteResult
	if len(records) == 0 {
		return result, nil
	}

	records = dedupe(records)

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ExternalID)
	}

	existing, err := w.store.ExistingIDs(ctx, source, entityType, ids)
	if err != nil {
		return result, &domain.PermanentError{Op: "lookup existing ids", Err: err}
	}

	var toInsert, toUpdate []*domain.ExternalRecord
	for _, rec := range records {
		if existing[rec.ExternalID] {
			toUpdate = append(toUpdate, rec)
		} else {
			toInsert = append(toInsert, rec)
		}
	}

	replace := mode == domain.WriteModeReplace

	if len(toInsert) > 0 {
		if err := w.store.BulkInsert(ctx, source, toInsert); err != nil {
			w.logger.Warn("bulk insert failed, falling back to per-record writes",
				"source", source,
				"entity_type", entityType,
				"records", len(toInsert),
				"error", err,
			)
			created, failed := w.writeIndividually(ctx, source, toInsert, false, replace)
			result.Created += created
			result.Failed += failed
		} else {
			result.Created += len(toInsert)
		}
	}

	if len(toUpdate) > 0 {
		if err := w.store.BulkUpdate(ctx, source, toUpdate, replace); err != nil {
			w.logger.Warn("bulk update failed, falling back to per-record writes",
				"source", source,
				"entity_type", entityType,
				"records", len(toUpdate),
				"error", err,
			)
			updated, failed := w.writeIndividually(ctx, source, toUpdate, true, replace)
			result.Updated += updated
			result.Failed += failed
		} else {
			result.Updated += len(toUpdate)
		}
	}

	return result, nil
}

// writeIndividually retries a failed sub-batch record by record. Each
// failure is counted individually and does not abort the batch.
func (w *ReconciliationWriter) writeIndividually(
	ctx context.Context,
	source string,
	records []*domain.ExternalRecord,
	update, replace bool,
) (ok, failed int) {
	for _, rec := range records {
		var err error
		if update {
			err = w.store.Update(ctx, source, rec, replace)
		} else {
			err = w.store.Insert(ctx, source, rec)
		}
		if err != nil {
			failed++
			w.logger.Warn("record write failed",
				"source", source,
				"external_id", rec.ExternalID,
				"update", update,
				"error", err,
			)
			continue
		}
		ok++
	}
	return ok, failed
}

// dedupe collapses duplicate external ids within a batch, keeping the last
// occurrence. Adjacent windows are already disjoint; this guards against a
// source returning the same record twice in one page sequence.
func dedupe(records []*domain.ExternalRecord) []*domain.ExternalRecord {
	seen := make(map[string]int, len(records))
	out := records[:0:0]
	for _, rec := range records {
		key := fmt.Sprintf("%s/%s", rec.EntityType, rec.ExternalID)
		if i, dup := seen[key]; dup {
			out[i] = rec
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}
	return out
}
