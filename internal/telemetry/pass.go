package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"prax-go/internal/prax"
)

// PassMetrics records one set of instruments per finished import pass.
type PassMetrics struct {
	runs     metric.Int64Counter
	records  metric.Int64Counter
	skipped  metric.Int64Counter
	linked   metric.Int64Counter
	deferred metric.Int64Counter
	duration metric.Float64Histogram
}

var _ prax.Metrics = (*PassMetrics)(nil)

// NewPassMetrics creates the pass instruments on m.
func NewPassMetrics(m metric.Meter) (*PassMetrics, error) {
	pm := &PassMetrics{}
	var err error
	if pm.runs, err = m.Int64Counter("prax.import.runs",
		metric.WithDescription("Import passes run, by pass and status")); err != nil {
		return nil, err
	}
	if pm.records, err = m.Int64Counter("prax.import.records",
		metric.WithDescription("Records upserted")); err != nil {
		return nil, err
	}
	if pm.skipped, err = m.Int64Counter("prax.import.skipped",
		metric.WithDescription("Records skipped after a fetch or storage error")); err != nil {
		return nil, err
	}
	if pm.linked, err = m.Int64Counter("prax.import.linked",
		metric.WithDescription("Edges established")); err != nil {
		return nil, err
	}
	if pm.deferred, err = m.Int64Counter("prax.import.deferred",
		metric.WithDescription("Links whose counterpart was not mirrored yet")); err != nil {
		return nil, err
	}
	if pm.duration, err = m.Float64Histogram("prax.import.duration",
		metric.WithDescription("Import pass duration"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return pm, nil
}

func (pm *PassMetrics) RecordPass(ctx context.Context, s prax.PassSummary) {
	pass := attribute.String("pass", string(s.Pass))
	set := metric.WithAttributes(pass)

	pm.runs.Add(ctx, 1, metric.WithAttributes(pass, attribute.String("status", s.Status)))
	pm.records.Add(ctx, int64(s.Records), set)
	pm.skipped.Add(ctx, int64(s.Skipped), set)
	pm.linked.Add(ctx, int64(s.Linked), set)
	pm.deferred.Add(ctx, int64(s.Deferred), set)
	pm.duration.Record(ctx, float64(s.Duration.Milliseconds()), set)
}
