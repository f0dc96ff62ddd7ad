// Package service runs the four account analyses over a consistent
// snapshot of the customer master and activity stream.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	"github.com/gioariciaga/sql-analysis/internal/clock"
	"github.com/gioariciaga/sql-analysis/internal/config"
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	"github.com/gioariciaga/sql-analysis/internal/observability/metrics"
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/rank"
	"github.com/gioariciaga/sql-analysis/internal/scoring/rules"
	"github.com/gioariciaga/sql-analysis/internal/scoring/window"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Scoring   *config.ScoringConfigHolder
	Metrics   *metrics.Metrics `optional:"true"`
	Customers customerdomain.Repository
	Activity  activitydomain.Repository
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	scoring   *config.ScoringConfigHolder
	metrics   *metrics.Metrics
	customers customerdomain.Repository
	activity  activitydomain.Repository
}

func New(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("scoring.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		scoring:   p.Scoring,
		metrics:   p.Metrics,
		customers: p.Customers,
		activity:  p.Activity,
	}
}

// snapshot is one consistent read of the inputs of a scoring run.
type snapshot struct {
	customers []*customerdomain.Customer
	activity  map[snowflake.ID][]*activitydomain.ActivityRecord
}

// runParams are the resolved parameters of one run.
type runParams struct {
	asOf  time.Time
	limit int
}

func (s *service) resolve(req domain.RunRequest) (runParams, error) {
	cfg := s.scoring.Get()

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	asOf = asOf.UTC()
	if asOf.After(s.clock.Now()) {
		return runParams{}, domain.ErrInvalidAsOf
	}

	limit := cfg.CustomerLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	return runParams{asOf: asOf, limit: limit}, nil
}

// loadSnapshot reads the customer master and the pre-cutoff activity
// stream inside one transaction so every analysis of a run sees the same
// state.
func (s *service) loadSnapshot(ctx context.Context, asOf time.Time) (snapshot, error) {
	snap := snapshot{activity: make(map[snowflake.ID][]*activitydomain.ActivityRecord)}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customers, err := s.customers.List(ctx, tx)
		if err != nil {
			return err
		}
		snap.customers = customers

		records, err := s.activity.ListBefore(ctx, tx, asOf)
		if err != nil {
			return err
		}
		for _, rec := range records {
			snap.activity[rec.CustomerID] = append(snap.activity[rec.CustomerID], rec)
		}
		return nil
	})
	if err != nil {
		s.log.Error("snapshot load failed", zap.Error(err))
		return snapshot{}, domain.ErrSnapshotRead
	}
	return snap, nil
}

func accountRef(c *customerdomain.Customer) domain.AccountRef {
	return domain.AccountRef{
		CustomerID:   c.ID,
		CompanyName:  c.CompanyName,
		PlanType:     string(c.PlanType),
		Status:       string(c.Status),
		AccountOwner: c.AccountOwner,
		MRR:          c.MRR,
	}
}

func (s *service) observeRun(ctx context.Context, analysis string, start time.Time, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordRun(ctx, analysis, outcome, time.Since(start))
	if err == nil {
		s.metrics.RecordAccountsScored(ctx, analysis, rows)
	}
}

// Health scores every active account with current-window activity and
// returns the weakest accounts first.
func (s *service) Health(ctx context.Context, req domain.RunRequest) (domain.HealthReport, error) {
	start := time.Now()
	report, err := s.health(ctx, req)
	s.observeRun(ctx, "health", start, len(report.Results), err)
	return report, err
}

func (s *service) health(ctx context.Context, req domain.RunRequest) (domain.HealthReport, error) {
	run, err := s.resolve(req)
	if err != nil {
		return domain.HealthReport{}, err
	}
	snap, err := s.loadSnapshot(ctx, run.asOf)
	if err != nil {
		return domain.HealthReport{}, err
	}

	cfg := s.scoring.Get()
	wcfg := window.FromScoring(cfg)

	var rows []domain.HealthScore
	for _, c := range snap.customers {
		if c.Churned() {
			continue
		}
		agg := window.Aggregate(wcfg, c.ID, snap.activity[c.ID], run.asOf)
		if !agg.HasCurrentData() {
			continue
		}

		usage := rules.UsageHealth(agg)
		support := rules.SupportHealth(agg)
		engagement := rules.EngagementHealth(agg)
		overall := rules.OverallHealth(cfg.HealthWeights, usage, support, engagement)

		row := domain.HealthScore{
			AccountRef:       accountRef(c),
			UsageHealth:      usage,
			SupportHealth:    support,
			EngagementHealth: engagement,
			Overall:          overall,
			Metrics:          agg.Current,
		}
		row.Grade, row.Action = rank.Classify(rank.HealthBands, overall.Value)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rank.Less(rows[i].Overall.Value, rows[j].Overall.Value, false, rows[i].AccountRef, rows[j].AccountRef)
	})
	rows = rank.Truncate(rows, run.limit)

	runID := s.genID.Generate().String()
	s.log.Info("health analysis complete",
		zap.String("run_id", runID),
		zap.Time("as_of", run.asOf),
		zap.Int("accounts", len(rows)),
	)
	return domain.HealthReport{RunID: runID, AsOf: run.asOf, Results: rows}, nil
}

// Churn scores every non-churned account, including silent ones, and
// returns the riskiest accounts first.
func (s *service) Churn(ctx context.Context, req domain.RunRequest) (domain.ChurnReport, error) {
	start := time.Now()
	report, err := s.churn(ctx, req)
	s.observeRun(ctx, "churn", start, len(report.Results), err)
	return report, err
}

func (s *service) churn(ctx context.Context, req domain.RunRequest) (domain.ChurnReport, error) {
	run, err := s.resolve(req)
	if err != nil {
		return domain.ChurnReport{}, err
	}
	snap, err := s.loadSnapshot(ctx, run.asOf)
	if err != nil {
		return domain.ChurnReport{}, err
	}

	wcfg := window.FromScoring(s.scoring.Get())

	var rows []domain.ChurnScore
	for _, c := range snap.customers {
		if c.Churned() {
			continue
		}
		agg := window.Aggregate(wcfg, c.ID, snap.activity[c.ID], run.asOf)

		signals := rules.Churn(agg)
		row := domain.ChurnScore{
			AccountRef: accountRef(c),
			Score:      rules.ChurnScore(signals),
			Signals:    signals,
			Metrics:    agg.Current,
			Prior:      agg.Prior,
		}
		row.Tier, row.Action = rank.Classify(rank.ChurnBands, row.Score)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rank.Less(rows[i].Score, rows[j].Score, true, rows[i].AccountRef, rows[j].AccountRef)
	})
	rows = rank.Truncate(rows, run.limit)

	runID := s.genID.Generate().String()
	s.log.Info("churn analysis complete",
		zap.String("run_id", runID),
		zap.Time("as_of", run.asOf),
		zap.Int("accounts", len(rows)),
	)
	return domain.ChurnReport{RunID: runID, AsOf: run.asOf, Results: rows}, nil
}

// Expansion scores active accounts with current activity and keeps only
// qualified candidates, strongest first.
func (s *service) Expansion(ctx context.Context, req domain.RunRequest) (domain.ExpansionReport, error) {
	start := time.Now()
	report, err := s.expansion(ctx, req)
	s.observeRun(ctx, "expansion", start, len(report.Results), err)
	return report, err
}

func (s *service) expansion(ctx context.Context, req domain.RunRequest) (domain.ExpansionReport, error) {
	run, err := s.resolve(req)
	if err != nil {
		return domain.ExpansionReport{}, err
	}
	snap, err := s.loadSnapshot(ctx, run.asOf)
	if err != nil {
		return domain.ExpansionReport{}, err
	}

	wcfg := window.FromScoring(s.scoring.Get())

	var rows []domain.ExpansionScore
	for _, c := range snap.customers {
		if c.Churned() {
			continue
		}
		agg := window.Aggregate(wcfg, c.ID, snap.activity[c.ID], run.asOf)
		if !agg.HasCurrentData() {
			continue
		}

		signals := rules.Expansion(c.PlanType, agg)
		score := signals.Total()
		if score < rules.MinExpansionScore {
			continue
		}

		row := domain.ExpansionScore{
			AccountRef: accountRef(c),
			Score:      score,
			Signals:    signals,
			Metrics:    agg.Current,
		}
		row.Tier, row.Action = rank.Classify(rank.ExpansionBands, score)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rank.Less(rows[i].Score, rows[j].Score, true, rows[i].AccountRef, rows[j].AccountRef)
	})
	rows = rank.Truncate(rows, run.limit)

	runID := s.genID.Generate().String()
	s.log.Info("expansion analysis complete",
		zap.String("run_id", runID),
		zap.Time("as_of", run.asOf),
		zap.Int("accounts", len(rows)),
	)
	return domain.ExpansionReport{RunID: runID, AsOf: run.asOf, Results: rows}, nil
}

// Trend scores accounts with any activity in the consistency window and
// returns the fastest-declining accounts first.
func (s *service) Trend(ctx context.Context, req domain.RunRequest) (domain.TrendReport, error) {
	start := time.Now()
	report, err := s.trend(ctx, req)
	s.observeRun(ctx, "trend", start, len(report.Results), err)
	return report, err
}

func (s *service) trend(ctx context.Context, req domain.RunRequest) (domain.TrendReport, error) {
	run, err := s.resolve(req)
	if err != nil {
		return domain.TrendReport{}, err
	}
	snap, err := s.loadSnapshot(ctx, run.asOf)
	if err != nil {
		return domain.TrendReport{}, err
	}

	wcfg := window.FromScoring(s.scoring.Get())

	var rows []domain.TrendScore
	for _, c := range snap.customers {
		if c.Churned() {
			continue
		}
		agg := window.Aggregate(wcfg, c.ID, snap.activity[c.ID], run.asOf)
		if agg.ActiveWeekCount == 0 {
			continue
		}

		signals := rules.Trend(agg)
		row := domain.TrendScore{
			AccountRef:      accountRef(c),
			Score:           signals.Total(),
			Signals:         signals,
			UsageTrendPct:   agg.UsageTrendPct,
			LoginTrendPct:   agg.LoginTrendPct,
			ActiveWeekCount: agg.ActiveWeekCount,
		}
		row.Tier, row.Action = rank.Classify(rank.TrendBands, row.Score)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rank.Less(rows[i].Score, rows[j].Score, false, rows[i].AccountRef, rows[j].AccountRef)
	})
	rows = rank.Truncate(rows, run.limit)

	runID := s.genID.Generate().String()
	s.log.Info("trend analysis complete",
		zap.String("run_id", runID),
		zap.Time("as_of", run.asOf),
		zap.Int("accounts", len(rows)),
	)
	return domain.TrendReport{RunID: runID, AsOf: run.asOf, Results: rows}, nil
}
