package domain

import (
	"context"
	"errors"
	"time"
)

// RunRequest parameterizes one engine run. AsOf is the reference "now";
// every window boundary is relative to it. Limit overrides the configured
// output row limit when positive (it is clamped, never raised).
type RunRequest struct {
	AsOf  time.Time
	Limit int
}

type HealthReport struct {
	RunID   string        `json:"run_id"`
	AsOf    time.Time     `json:"as_of"`
	Results []HealthScore `json:"results"`
}

type ChurnReport struct {
	RunID   string       `json:"run_id"`
	AsOf    time.Time    `json:"as_of"`
	Results []ChurnScore `json:"results"`
}

type ExpansionReport struct {
	RunID   string           `json:"run_id"`
	AsOf    time.Time        `json:"as_of"`
	Results []ExpansionScore `json:"results"`
}

type TrendReport struct {
	RunID   string       `json:"run_id"`
	AsOf    time.Time    `json:"as_of"`
	Results []TrendScore `json:"results"`
}

type Service interface {
	Health(ctx context.Context, req RunRequest) (HealthReport, error)
	Churn(ctx context.Context, req RunRequest) (ChurnReport, error)
	Expansion(ctx context.Context, req RunRequest) (ExpansionReport, error)
	Trend(ctx context.Context, req RunRequest) (TrendReport, error)
}

var (
	ErrInvalidAsOf  = errors.New("invalid_as_of")
	ErrSnapshotRead = errors.New("snapshot_read_failed")
)
