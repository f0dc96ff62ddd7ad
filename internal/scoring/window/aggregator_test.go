package window

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	"github.com/gioariciaga/sql-analysis/internal/config"
)

var testCfg = FromScoring(config.DefaultScoringConfig())

func week(asOf time.Time, weeksBack int) time.Time {
	return asOf.AddDate(0, 0, -7*weeksBack)
}

func rec(customerID snowflake.ID, date time.Time, logins int, usage float64, tickets int, nps *int) *activitydomain.ActivityRecord {
	return &activitydomain.ActivityRecord{
		CustomerID:           customerID,
		ActivityDate:         date,
		LoginsCount:          logins,
		FeatureUsageScore:    usage,
		SupportTicketsOpened: tickets,
		NPSScore:             nps,
	}
}

func intPtr(v int) *int { return &v }

func TestAggregateEmptyHistory(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	agg := Aggregate(testCfg, 1, nil, asOf)

	assert.False(t, agg.HasCurrentData())
	assert.Equal(t, 0, agg.Current.Weeks)
	assert.False(t, agg.Current.AvgLogins.Valid)
	assert.False(t, agg.Current.AvgUsage.Valid)
	assert.False(t, agg.Current.AvgNPS.Valid)
	assert.False(t, agg.Current.TicketTotal.Valid)
	assert.Equal(t, 0, agg.ActiveWeekCount)
	assert.False(t, agg.UsageTrendPct.Valid)
	assert.False(t, agg.LoginTrendPct.Valid)
}

func TestAggregateWindowBoundaries(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id := snowflake.ID(7)

	records := []*activitydomain.ActivityRecord{
		// Dated at asOf: must not participate anywhere.
		rec(id, asOf, 100, 100, 100, intPtr(10)),
		rec(id, asOf.AddDate(0, 0, -1), 20, 60, 1, intPtr(8)),
		// Exactly 30 days back: last day of the current window.
		rec(id, asOf.AddDate(0, 0, -30), 40, 80, 1, nil),
		rec(id, asOf.AddDate(0, 0, -31), 10, 50, 2, intPtr(6)),
		// Exactly 60 days back: last day of the prior window.
		rec(id, asOf.AddDate(0, 0, -60), 30, 70, 0, nil),
		// Older than both windows.
		rec(id, asOf.AddDate(0, 0, -61), 5, 10, 9, intPtr(1)),
	}

	agg := Aggregate(testCfg, id, records, asOf)

	require.Equal(t, 2, agg.Current.Weeks)
	assert.Equal(t, 30.0, agg.Current.AvgLogins.Value)
	assert.Equal(t, 70.0, agg.Current.AvgUsage.Value)
	assert.Equal(t, 2.0, agg.Current.TicketTotal.Value)
	// Only one current-window record carried a survey response.
	require.True(t, agg.Current.AvgNPS.Valid)
	assert.Equal(t, 8.0, agg.Current.AvgNPS.Value)

	require.Equal(t, 2, agg.Prior.Weeks)
	assert.Equal(t, 20.0, agg.Prior.AvgLogins.Value)
	assert.Equal(t, 60.0, agg.Prior.AvgUsage.Value)
	assert.Equal(t, 2.0, agg.Prior.TicketTotal.Value)
	assert.Equal(t, 6.0, agg.Prior.AvgNPS.Value)
}

func TestAggregateIgnoresOtherCustomers(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	records := []*activitydomain.ActivityRecord{
		rec(1, asOf.AddDate(0, 0, -7), 10, 50, 0, nil),
		rec(2, asOf.AddDate(0, 0, -7), 99, 99, 9, intPtr(10)),
	}

	agg := Aggregate(testCfg, 1, records, asOf)

	require.Equal(t, 1, agg.Current.Weeks)
	assert.Equal(t, 10.0, agg.Current.AvgLogins.Value)
}

func TestAggregateActiveWeekCount(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id := snowflake.ID(3)

	var records []*activitydomain.ActivityRecord
	// Five weekly records inside the eight-week window, one outside it.
	for w := 1; w <= 5; w++ {
		records = append(records, rec(id, week(asOf, w), 10, 50, 0, nil))
	}
	records = append(records, rec(id, week(asOf, 9), 10, 50, 0, nil))

	agg := Aggregate(testCfg, id, records, asOf)

	assert.Equal(t, 5, agg.ActiveWeekCount)
}

func TestAggregateNoNPSResponsesIsUndefined(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id := snowflake.ID(4)

	records := []*activitydomain.ActivityRecord{
		rec(id, week(asOf, 1), 10, 50, 0, nil),
		rec(id, week(asOf, 2), 12, 55, 1, nil),
	}

	agg := Aggregate(testCfg, id, records, asOf)

	require.Equal(t, 2, agg.Current.Weeks)
	assert.False(t, agg.Current.AvgNPS.Valid)
	// Zero tickets over a populated window is a defined zero.
	require.True(t, agg.Current.TicketTotal.Valid)
	assert.Equal(t, 1.0, agg.Current.TicketTotal.Value)
}

func TestAggregateRollingAndTrend(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id := snowflake.ID(5)

	// Twelve weekly records. Usage climbs 2 points a week, logins flat.
	var records []*activitydomain.ActivityRecord
	for w := 12; w >= 1; w-- {
		usage := 50 + float64(12-w)*2
		records = append(records, rec(id, week(asOf, w), 20, usage, 0, nil))
	}

	agg := Aggregate(testCfg, id, records, asOf)

	require.NotEmpty(t, agg.Rolling)
	latest := agg.Rolling[len(agg.Rolling)-1]
	assert.Equal(t, week(asOf, 1), latest.Week)
	// Trailing four weeks of the latest point: usage 66,68,70,72.
	require.True(t, latest.AvgUsage.Valid)
	assert.InDelta(t, 69.0, latest.AvgUsage.Value, 1e-9)
	assert.InDelta(t, 20.0, latest.AvgLogins.Value, 1e-9)

	// Baseline is the rolling point four weeks before the latest:
	// trailing usage 58,60,62,64 averaging 61.
	require.True(t, agg.UsageTrendPct.Valid)
	assert.InDelta(t, (69.0-61.0)/61.0*100, agg.UsageTrendPct.Value, 1e-9)
	require.True(t, agg.LoginTrendPct.Valid)
	assert.InDelta(t, 0.0, agg.LoginTrendPct.Value, 1e-9)
}

func TestAggregateTrendUndefinedWithoutBaseline(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id := snowflake.ID(6)

	// Three weeks of history: no point sits a full trend window back.
	records := []*activitydomain.ActivityRecord{
		rec(id, week(asOf, 1), 10, 50, 0, nil),
		rec(id, week(asOf, 2), 12, 55, 0, nil),
		rec(id, week(asOf, 3), 14, 60, 0, nil),
	}

	agg := Aggregate(testCfg, id, records, asOf)

	assert.False(t, agg.UsageTrendPct.Valid)
	assert.False(t, agg.LoginTrendPct.Valid)
}

func TestAggregateUnsortedInput(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id := snowflake.ID(8)

	records := []*activitydomain.ActivityRecord{
		rec(id, week(asOf, 1), 30, 70, 0, nil),
		rec(id, week(asOf, 3), 10, 50, 0, nil),
		rec(id, week(asOf, 2), 20, 60, 0, nil),
	}

	agg := Aggregate(testCfg, id, records, asOf)

	require.Len(t, agg.Rolling, 3)
	assert.True(t, agg.Rolling[0].Week.Before(agg.Rolling[1].Week))
	assert.True(t, agg.Rolling[1].Week.Before(agg.Rolling[2].Week))
}
