package audit

import (
	"context"
	"errors"
	"time"

	"github.com/naokiys/emprecord/internal/models"
)

// Op is a database operation wrapped by the interceptor. It reports how many
// rows it touched (or read) so the audit entry can carry the count.
type Op func(ctx context.Context) (affectedRows int64, err error)

// Interceptor wraps database operations with wall-clock timing and audit
// recording. The wrapped operation's outcome is returned unmodified; the
// audit write is scheduled after the operation settles and runs detached, so
// it adds no latency to the caller and its failure cannot leak back.
type Interceptor struct {
	rec *Recorder
}

// NewInterceptor returns an Interceptor recording through rec.
func NewInterceptor(rec *Recorder) *Interceptor {
	return &Interceptor{rec: rec}
}

// Intercept runs op and records one audit entry for it once it settles.
// statementText is parsed heuristically for the table name and record id;
// operationLabel is used when the statement's verb is not recognizable.
// When ctx is cancelled before op settles, no entry is produced.
func (i *Interceptor) Intercept(ctx context.Context, statementText, operationLabel string, op Op) error {
	start := time.Now()
	affected, err := op(ctx)
	elapsedMs := time.Since(start).Milliseconds()

	// The operation never settled on its own, it was torn down with the
	// request. Nothing happened that is worth an audit entry.
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}

	opType := Verb(statementText, operationLabel)
	tableName := TableName(statementText)
	recordID := RecordID(statementText)

	if err != nil {
		i.rec.LogFailedOperation(ctx, opType, tableName, recordID, statementText, elapsedMs, err)
		return err
	}
	i.rec.LogSuccessfulOperation(ctx, opType, tableName, recordID, nil, nil, statementText, elapsedMs, affected)
	return nil
}

// InterceptInsert intercepts op as an INSERT.
func (i *Interceptor) InterceptInsert(ctx context.Context, statementText string, op Op) error {
	return i.Intercept(ctx, statementText, models.OpInsert, op)
}

// InterceptUpdate intercepts op as an UPDATE.
func (i *Interceptor) InterceptUpdate(ctx context.Context, statementText string, op Op) error {
	return i.Intercept(ctx, statementText, models.OpUpdate, op)
}

// InterceptDelete intercepts op as a DELETE.
func (i *Interceptor) InterceptDelete(ctx context.Context, statementText string, op Op) error {
	return i.Intercept(ctx, statementText, models.OpDelete, op)
}

// InterceptSelect intercepts op as a SELECT.
func (i *Interceptor) InterceptSelect(ctx context.Context, statementText string, op Op) error {
	return i.Intercept(ctx, statementText, models.OpSelect, op)
}
