package obs

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

// PGXTracer opens one client span per reference-data query. Set it as the
// pgx.ConnConfig.Tracer of the pool.
type PGXTracer struct {
	// Tracer defaults to the global "landed-quote/repo" tracer.
	Tracer trace.Tracer
}

// TraceQueryStart implements pgx.QueryTracer.
func (t PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	tracer := t.Tracer
	if tracer == nil {
		tracer = otel.Tracer("landed-quote/repo")
	}
	sql := strings.TrimSpace(data.SQL)
	op := operation(sql)
	ctx, _ = tracer.Start(ctx, "db."+strings.ToLower(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", truncate(sql)),
			attribute.Int("db.args", len(data.Args)),
		),
	)
	return ctx
}

// TraceQueryEnd implements pgx.QueryTracer.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil && !isNoRows(data.Err) {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	} else {
		span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}
	span.End()
}

func operation(sql string) string {
	if fields := strings.Fields(sql); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return "QUERY"
}

func truncate(sql string) string {
	if len(sql) > maxStatementLen {
		return sql[:maxStatementLen] + "..."
	}
	return sql
}

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
