package prax

import (
	"context"
	"time"

	"prax-go/internal/model"
)

// PassSummary describes one finished import pass.
type PassSummary struct {
	Pass     model.Pass
	Status   string
	Records  int
	Skipped  int
	Linked   int
	Deferred int
	Duration time.Duration
}

// Metrics receives a summary at the end of every pass.
type Metrics interface {
	RecordPass(ctx context.Context, s PassSummary)
}

// NopMetrics discards pass summaries.
type NopMetrics struct{}

func (NopMetrics) RecordPass(context.Context, PassSummary) {}
