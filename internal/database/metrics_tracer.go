package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
)

type queryLabelKey struct{}

type queryStartKey struct{}

// WithQueryLabel names the repository operation issuing queries under ctx.
// The tracer uses the label for its duration and error metrics, which keeps
// cardinality at one series per operation instead of one per statement.
func WithQueryLabel(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, queryLabelKey{}, operation)
}

// MetricsTracer is a pgx.QueryTracer recording per-operation latency and
// error counts.
type MetricsTracer struct{}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if _, ok := ctx.Value(queryLabelKey{}).(string); !ok {
		// Queries issued outside a labelled repository call, such as
		// migrations, fall back to the SQL verb.
		ctx = WithQueryLabel(ctx, sqlVerb(data.SQL))
	}
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	label, _ := ctx.Value(queryLabelKey{}).(string)

	metrics.DBQueryDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if data.Err != nil {
		metrics.DBErrorsTotal.WithLabelValues(label).Inc()
	}
}

func sqlVerb(sql string) string {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "unknown"
	}
	if i := strings.IndexAny(sql, " \n\t"); i > 0 {
		sql = sql[:i]
	}
	return strings.ToLower(sql)
}
