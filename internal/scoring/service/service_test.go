package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	activityrepo "github.com/gioariciaga/sql-analysis/internal/activity/repository"
	"github.com/gioariciaga/sql-analysis/internal/clock"
	"github.com/gioariciaga/sql-analysis/internal/config"
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	customerrepo "github.com/gioariciaga/sql-analysis/internal/customer/repository"
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/pkg/db"
)

var testAsOf = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&customerdomain.Customer{}, &activitydomain.ActivityRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(testAsOf)

	svc := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Scoring:   config.NewStaticScoringConfigHolder(config.DefaultScoringConfig()),
		Customers: customerrepo.Provide(),
		Activity:  activityrepo.Provide(),
	})

	return &fixture{svc: svc, db: conn, node: node, clock: fake}
}

func (f *fixture) addCustomer(t *testing.T, name string, plan customerdomain.PlanType, status customerdomain.Status, mrr float64) *customerdomain.Customer {
	t.Helper()
	c := &customerdomain.Customer{
		ID:             f.node.Generate(),
		CompanyName:    name,
		SignupDate:     testAsOf.AddDate(-1, 0, 0),
		PlanType:       plan,
		SignupPlanType: plan,
		Status:         status,
		MRR:            mrr,
		SignupMRR:      mrr,
		CreatedAt:      testAsOf,
		UpdatedAt:      testAsOf,
	}
	require.NoError(t, customerrepo.Provide().Insert(context.Background(), f.db, c))
	return c
}

func (f *fixture) addWeeks(t *testing.T, customerID snowflake.ID, weeksBack int, count int, logins int, usage float64, tickets int, nps *int) {
	t.Helper()
	repo := activityrepo.Provide()
	for w := weeksBack; w < weeksBack+count; w++ {
		rec := &activitydomain.ActivityRecord{
			ID:                   f.node.Generate(),
			CustomerID:           customerID,
			ActivityDate:         testAsOf.AddDate(0, 0, -7*(w+1)),
			LoginsCount:          logins,
			FeatureUsageScore:    usage,
			SupportTicketsOpened: tickets,
			NPSScore:             nps,
			CreatedAt:            testAsOf,
		}
		require.NoError(t, repo.Insert(context.Background(), f.db, rec))
	}
}

func intPtr(v int) *int { return &v }

func TestHealthExcludesChurnedAndSilentAccounts(t *testing.T) {
	f := newFixture(t)

	active := f.addCustomer(t, "Acme", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	churned := f.addCustomer(t, "Gone Corp", customerdomain.PlanStarter, customerdomain.StatusChurned, 200)
	silent := f.addCustomer(t, "Quiet Inc", customerdomain.PlanStarter, customerdomain.StatusActive, 300)

	f.addWeeks(t, active.ID, 0, 4, 25, 70, 0, intPtr(8))
	f.addWeeks(t, churned.ID, 0, 4, 25, 70, 0, intPtr(8))
	// Silent: last activity beyond the current window.
	f.addWeeks(t, silent.ID, 6, 2, 25, 70, 0, nil)

	report, err := f.svc.Health(context.Background(), domain.RunRequest{})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, active.ID, report.Results[0].CustomerID)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, testAsOf, report.AsOf)
}

func TestHealthCompositeAndGrade(t *testing.T) {
	f := newFixture(t)

	c := f.addCustomer(t, "Acme", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	// Four weeks at usage 70, 25 logins, no tickets, NPS 8:
	// usage 70, support 100, engagement 60+5=65.
	f.addWeeks(t, c.ID, 0, 4, 25, 70, 0, intPtr(8))

	report, err := f.svc.Health(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	row := report.Results[0]
	assert.Equal(t, 70.0, row.UsageHealth.Value)
	assert.Equal(t, 100.0, row.SupportHealth.Value)
	assert.Equal(t, 65.0, row.EngagementHealth.Value)
	// 70*0.4 + 100*0.3 + 65*0.3 = 77.5
	assert.Equal(t, 77.5, row.Overall.Value)
	assert.Equal(t, "B", row.Grade)
	assert.NotEmpty(t, row.Action)
}

func TestHealthOrdersWorstFirstWithMRRTieBreak(t *testing.T) {
	f := newFixture(t)

	weak := f.addCustomer(t, "Weak", customerdomain.PlanStarter, customerdomain.StatusActive, 50)
	strongSmall := f.addCustomer(t, "Strong Small", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	strongBig := f.addCustomer(t, "Strong Big", customerdomain.PlanStarter, customerdomain.StatusActive, 900)

	f.addWeeks(t, weak.ID, 0, 4, 5, 20, 5, intPtr(3))
	// Identical activity: identical score, so MRR decides.
	f.addWeeks(t, strongSmall.ID, 0, 4, 45, 90, 0, intPtr(9))
	f.addWeeks(t, strongBig.ID, 0, 4, 45, 90, 0, intPtr(9))

	report, err := f.svc.Health(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, weak.ID, report.Results[0].CustomerID)
	assert.Equal(t, strongBig.ID, report.Results[1].CustomerID)
	assert.Equal(t, strongSmall.ID, report.Results[2].CustomerID)
}

func TestChurnIncludesSilentAccounts(t *testing.T) {
	f := newFixture(t)

	silent := f.addCustomer(t, "Quiet Inc", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	healthy := f.addCustomer(t, "Acme", customerdomain.PlanStarter, customerdomain.StatusActive, 100)

	f.addWeeks(t, healthy.ID, 0, 8, 45, 90, 0, intPtr(9))

	report, err := f.svc.Churn(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	// The silent account carries inactivity risk and sorts first.
	assert.Equal(t, silent.ID, report.Results[0].CustomerID)
	assert.Equal(t, 15.0, report.Results[0].Score)
	assert.Equal(t, 15.0, report.Results[0].Signals.Inactivity)
	assert.Equal(t, 0.0, report.Results[1].Score)
	assert.Equal(t, "Low", report.Results[1].Tier)
}

func TestChurnUsageCollapseScoresHigh(t *testing.T) {
	f := newFixture(t)

	c := f.addCustomer(t, "Fading Co", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	// Current window: usage 30; prior window: usage 80. Ratio 0.375.
	f.addWeeks(t, c.ID, 0, 4, 25, 30, 0, nil)
	f.addWeeks(t, c.ID, 4, 4, 25, 80, 0, nil)

	report, err := f.svc.Churn(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	assert.Equal(t, 25.0, report.Results[0].Signals.UsageDecline)
}

func TestExpansionFiltersBelowThreshold(t *testing.T) {
	f := newFixture(t)

	hot := f.addCustomer(t, "Power User", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	idle := f.addCustomer(t, "Casual", customerdomain.PlanEnterprise, customerdomain.StatusActive, 100)

	// Starter at usage 88, no tickets, NPS 9: ceiling 30, adoption 25,
	// satisfaction 15, mastery 10.
	f.addWeeks(t, hot.ID, 0, 4, 45, 88, 0, intPtr(9))
	// Enterprise at modest usage scores nothing.
	f.addWeeks(t, idle.ID, 0, 4, 15, 40, 2, nil)

	report, err := f.svc.Expansion(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	row := report.Results[0]
	assert.Equal(t, hot.ID, row.CustomerID)
	assert.Equal(t, 80.0, row.Score)
	assert.Equal(t, "Hot", row.Tier)
	assert.Equal(t, 30.0, row.Signals.PlanCeiling)
	assert.Equal(t, 10.0, row.Signals.Mastery)
}

func TestTrendRequiresRecentActivity(t *testing.T) {
	f := newFixture(t)

	growing := f.addCustomer(t, "Climber", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	dormant := f.addCustomer(t, "Dormant", customerdomain.PlanStarter, customerdomain.StatusActive, 100)

	f.addWeeks(t, growing.ID, 0, 8, 20, 70, 0, nil)
	// Dormant last appeared before the eight-week activity window.
	f.addWeeks(t, dormant.ID, 10, 2, 20, 70, 0, nil)

	report, err := f.svc.Trend(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	row := report.Results[0]
	assert.Equal(t, growing.ID, row.CustomerID)
	assert.Equal(t, 8, row.ActiveWeekCount)
	assert.Equal(t, 10.0, row.Signals.Consistency)
}

func TestRunRejectsFutureAsOf(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Health(context.Background(), domain.RunRequest{AsOf: testAsOf.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidAsOf)
}

func TestRunLimitClampsOutput(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		c := f.addCustomer(t, "Acct", customerdomain.PlanStarter, customerdomain.StatusActive, float64(100+i))
		f.addWeeks(t, c.ID, 0, 4, 25, 70, 0, nil)
	}

	report, err := f.svc.Health(context.Background(), domain.RunRequest{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, report.Results, 3)
}

func TestRunsAreIdempotent(t *testing.T) {
	f := newFixture(t)

	c := f.addCustomer(t, "Acme", customerdomain.PlanStarter, customerdomain.StatusActive, 100)
	f.addWeeks(t, c.ID, 0, 8, 25, 70, 1, intPtr(8))

	first, err := f.svc.Churn(context.Background(), domain.RunRequest{AsOf: testAsOf})
	require.NoError(t, err)
	second, err := f.svc.Churn(context.Background(), domain.RunRequest{AsOf: testAsOf})
	require.NoError(t, err)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
		assert.Equal(t, first.Results[i].CustomerID, second.Results[i].CustomerID)
	}
	// Run IDs differ even when the results do not.
	assert.NotEqual(t, first.RunID, second.RunID)
}
