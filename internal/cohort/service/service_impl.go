// Package service builds the monthly signup cohort report.
package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	"github.com/gioariciaga/sql-analysis/internal/clock"
	"github.com/gioariciaga/sql-analysis/internal/cohort/domain"
	"github.com/gioariciaga/sql-analysis/internal/config"
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	"github.com/gioariciaga/sql-analysis/internal/observability/metrics"
	scoringdomain "github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/rank"
)

// healthBands tier a cohort by its revenue retention ratio.
var healthBands = []rank.Band{
	{Min: 1.1, Label: "Expanding", Action: "Mine for expansion plays"},
	{Min: 0.9, Label: "Healthy", Action: "Maintain current motion"},
	{Min: 0.7, Label: "Contracting", Action: "Review churned account patterns"},
	{Min: math.Inf(-1), Label: "At Risk", Action: "Audit onboarding and pricing fit"},
}

// lifecycleStages label a cohort by its age in whole months.
var lifecycleStages = []rank.Band{
	{Min: 12, Label: "Mature"},
	{Min: 6, Label: "Maturing"},
	{Min: 3, Label: "Establishing"},
	{Min: math.Inf(-1), Label: "Onboarding"},
}

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
		log:       p.Log.Named("cohort.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		scoring:   p.Scoring,
		metrics:   p.Metrics,
		customers: p.Customers,
		activity:  p.Activity,
	}
}

func (s *service) Report(ctx context.Context, req domain.Request) (domain.Report, error) {
	start := time.Now()
	report, err := s.report(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordRun(ctx, "cohort", outcome, time.Since(start))
	if err == nil {
		s.metrics.RecordCohortsReported(ctx, len(report.Results))
	}
	return report, err
}

func (s *service) report(ctx context.Context, req domain.Request) (domain.Report, error) {
	cfg := s.scoring.Get()

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	asOf = asOf.UTC()
	if asOf.After(s.clock.Now()) {
		return domain.Report{}, scoringdomain.ErrInvalidAsOf
	}

	limit := cfg.CohortLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	var (
		customers []*customerdomain.Customer
		records   []*activitydomain.ActivityRecord
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		if customers, txErr = s.customers.List(ctx, tx); txErr != nil {
			return txErr
		}
		records, txErr = s.activity.ListBefore(ctx, tx, asOf)
		return txErr
	})
	if err != nil {
		s.log.Error("snapshot load failed", zap.Error(err))
		return domain.Report{}, scoringdomain.ErrSnapshotRead
	}

	byMonth := make(map[string][]*customerdomain.Customer)
	for _, c := range customers {
		month := c.CohortMonth()
		byMonth[month] = append(byMonth[month], c)
	}

	engagementStart := asOf.AddDate(0, 0, -cfg.CurrentWindowDays)
	recent := make(map[snowflake.ID][]*activitydomain.ActivityRecord)
	for _, rec := range records {
		if rec.ActivityDate.Before(engagementStart) {
			continue
		}
		recent[rec.CustomerID] = append(recent[rec.CustomerID], rec)
	}

	var cohorts []domain.Cohort
	for month, members := range byMonth {
		if len(members) < cfg.MinCohortSize {
			continue
		}
		cohorts = append(cohorts, buildCohort(month, members, recent, asOf))
	}

	sort.Slice(cohorts, func(i, j int) bool {
		return cohorts[i].Month > cohorts[j].Month
	})
	cohorts = rank.Truncate(cohorts, limit)

	runID := s.genID.Generate().String()
	s.log.Info("cohort analysis complete",
		zap.String("run_id", runID),
		zap.Time("as_of", asOf),
		zap.Int("cohorts", len(cohorts)),
	)
	return domain.Report{RunID: runID, AsOf: asOf, Results: cohorts}, nil
}

func buildCohort(month string, members []*customerdomain.Customer, recent map[snowflake.ID][]*activitydomain.ActivityRecord, asOf time.Time) domain.Cohort {
	cohort := domain.Cohort{
		Month:              month,
		Size:               len(members),
		StartingPlanCounts: make(map[string]int),
	}

	var logins, usage, nps float64
	var engaged, responses, tickets int
	for _, m := range members {
		cohort.StartingMRR += m.SignupMRR
		cohort.StartingPlanCounts[string(m.SignupPlanType)]++
		switch m.Status {
		case customerdomain.StatusChurned:
			cohort.ChurnedCount++
		case customerdomain.StatusAtRisk:
			cohort.AtRiskCount++
		default:
			cohort.ActiveCount++
		}
		if m.Upgraded() {
			cohort.UpgradedCount++
		}
		if m.Churned() {
			continue
		}
		cohort.CurrentMRR += m.MRR
		if m.Status != customerdomain.StatusActive {
			continue
		}
		cohort.ActiveMRR += m.MRR
		for _, rec := range recent[m.ID] {
			logins += float64(rec.LoginsCount)
			usage += rec.FeatureUsageScore
			tickets += rec.SupportTicketsOpened
			if rec.NPSScore != nil {
				nps += float64(*rec.NPSScore)
				responses++
			}
			engaged++
		}
	}

	cohort.RetentionPct = math.Round(float64(cohort.ActiveCount)/float64(cohort.Size)*1000) / 10
	cohort.UpgradeRatePct = math.Round(float64(cohort.UpgradedCount)/float64(cohort.Size)*1000) / 10

	if cohort.StartingMRR > 0 {
		cohort.RevenueRetention = scoringdomain.Defined(cohort.CurrentMRR / cohort.StartingMRR)
	} else {
		cohort.RevenueRetention = scoringdomain.Undefined()
	}

	if engaged > 0 {
		cohort.AvgLogins = scoringdomain.Defined(logins / float64(engaged))
		cohort.AvgUsage = scoringdomain.Defined(usage / float64(engaged))
		cohort.TicketTotal = scoringdomain.Defined(float64(tickets))
	} else {
		cohort.AvgLogins = scoringdomain.Undefined()
		cohort.AvgUsage = scoringdomain.Undefined()
		cohort.TicketTotal = scoringdomain.Undefined()
	}
	if responses > 0 {
		cohort.AvgNPS = scoringdomain.Defined(nps / float64(responses))
	} else {
		cohort.AvgNPS = scoringdomain.Undefined()
	}

	if cohort.RevenueRetention.Valid {
		cohort.Health, _ = rank.Classify(healthBands, cohort.RevenueRetention.Value)
	} else {
		cohort.Health = "Unknown"
	}

	cohort.Lifecycle, _ = rank.Classify(lifecycleStages, float64(cohortAgeMonths(month, asOf)))
	return cohort
}

// cohortAgeMonths counts whole calendar months between the cohort month
// and asOf. An unparsable month reads as age zero.
func cohortAgeMonths(month string, asOf time.Time) int {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0
	}
	age := (asOf.Year()-t.Year())*12 + int(asOf.Month()) - int(t.Month())
	if age < 0 {
		return 0
	}
	return age
}
