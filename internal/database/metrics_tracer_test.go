package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSQLVerb(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT * FROM catalog_entries", "select"},
		{"  INSERT INTO catalog_entries VALUES ($1)", "insert"},
		{"UPDATE\ncatalog_entries SET is_active = FALSE", "update"},
		{"COMMIT", "commit"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlVerb(tt.sql))
	}
}

func TestTracerRecordsUnderQueryLabel(t *testing.T) {
	tracer := &MetricsTracer{}

	ctx := WithQueryLabel(context.Background(), "tracer_test_labelled")
	ctx = tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("connection reset")})

	got := testutil.ToFloat64(metrics.DBErrorsTotal.WithLabelValues("tracer_test_labelled"))
	assert.Equal(t, 1.0, got)
}

func TestTracerFallsBackToSQLVerb(t *testing.T) {
	tracer := &MetricsTracer{}

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "TRUNCATE catalog_entries",
	})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("permission denied")})

	got := testutil.ToFloat64(metrics.DBErrorsTotal.WithLabelValues("truncate"))
	assert.Equal(t, 1.0, got)
}
