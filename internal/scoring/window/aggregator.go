// Package window reduces a customer's raw weekly activity stream into the
// fixed reference windows the dimension scorers consume: current and prior
// period aggregates, a rolling-average series, and an active-week count,
// all relative to a single reference date.
package window

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	"github.com/gioariciaga/sql-analysis/internal/config"
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
)

// Config sets the window sizes of one aggregation pass.
type Config struct {
	CurrentWindowDays   int
	ActivityWindowWeeks int
	RollingWindowWeeks  int
	RollingSeriesWeeks  int
	TrendWindowWeeks    int
}

// FromScoring maps the runtime scoring config onto aggregation windows.
func FromScoring(cfg config.ScoringConfig) Config {
	return Config{
		CurrentWindowDays:   cfg.CurrentWindowDays,
		ActivityWindowWeeks: cfg.ActivityWindowWeeks,
		RollingWindowWeeks:  cfg.RollingWindowWeeks,
		RollingSeriesWeeks:  cfg.RollingSeriesWeeks,
		TrendWindowWeeks:    cfg.TrendWindowWeeks,
	}
}

// Aggregate reduces one customer's full activity history relative to asOf.
// Only records dated strictly before asOf participate. Weeks absent from
// the series stay absent: rolling averages cover however many of the
// trailing weeks exist, and empty windows yield undefined aggregates, not
// zeros.
func Aggregate(cfg Config, customerID snowflake.ID, records []*activitydomain.ActivityRecord, asOf time.Time) domain.WindowAggregate {
	asOf = asOf.UTC()

	series := make([]*activitydomain.ActivityRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil || rec.CustomerID != customerID {
			continue
		}
		if !rec.ActivityDate.Before(asOf) {
			continue
		}
		series = append(series, rec)
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].ActivityDate.Before(series[j].ActivityDate)
	})

	currentStart := asOf.AddDate(0, 0, -cfg.CurrentWindowDays)
	priorStart := asOf.AddDate(0, 0, -2*cfg.CurrentWindowDays)

	agg := domain.WindowAggregate{
		CustomerID: customerID,
		Current:    reduceWindow(slice(series, currentStart, asOf)),
		Prior:      reduceWindow(slice(series, priorStart, currentStart)),
	}

	activityStart := asOf.AddDate(0, 0, -7*cfg.ActivityWindowWeeks)
	agg.ActiveWeekCount = countDistinctWeeks(slice(series, activityStart, asOf))

	agg.Rolling = rollingSeries(cfg, series, asOf)
	agg.UsageTrendPct, agg.LoginTrendPct = trendFromRolling(cfg, agg.Rolling)

	return agg
}

// slice returns the records with from <= activity_date < to.
func slice(series []*activitydomain.ActivityRecord, from, to time.Time) []*activitydomain.ActivityRecord {
	out := series[:0:0]
	for _, rec := range series {
		if rec.ActivityDate.Before(from) || !rec.ActivityDate.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func reduceWindow(recs []*activitydomain.ActivityRecord) domain.WindowMetrics {
	m := domain.WindowMetrics{Weeks: len(recs)}
	if len(recs) == 0 {
		m.AvgLogins = domain.Undefined()
		m.AvgUsage = domain.Undefined()
		m.AvgNPS = domain.Undefined()
		m.TicketTotal = domain.Undefined()
		return m
	}

	var logins, usage float64
	var tickets int
	var npsSum float64
	var npsCount int
	for _, rec := range recs {
		logins += float64(rec.LoginsCount)
		usage += rec.FeatureUsageScore
		tickets += rec.SupportTicketsOpened
		if rec.NPSScore != nil {
			npsSum += float64(*rec.NPSScore)
			npsCount++
		}
	}

	n := float64(len(recs))
	m.AvgLogins = domain.Defined(logins / n)
	m.AvgUsage = domain.Defined(usage / n)
	m.TicketTotal = domain.Defined(float64(tickets))
	if npsCount > 0 {
		m.AvgNPS = domain.Defined(npsSum / float64(npsCount))
	} else {
		m.AvgNPS = domain.Undefined()
	}
	return m
}

func countDistinctWeeks(recs []*activitydomain.ActivityRecord) int {
	seen := make(map[time.Time]struct{}, len(recs))
	for _, rec := range recs {
		seen[rec.ActivityDate.UTC().Truncate(24*time.Hour)] = struct{}{}
	}
	return len(seen)
}

// rollingSeries computes the trailing rolling average at each week present
// within the series lookback. Trailing windows draw on the full series, so
// the oldest points still smooth over weeks that precede the lookback.
func rollingSeries(cfg Config, series []*activitydomain.ActivityRecord, asOf time.Time) []domain.RollingPoint {
	seriesStart := asOf.AddDate(0, 0, -7*cfg.RollingSeriesWeeks)

	var points []domain.RollingPoint
	for i, rec := range series {
		if rec.ActivityDate.Before(seriesStart) {
			continue
		}

		trailingStart := rec.ActivityDate.AddDate(0, 0, -7*cfg.RollingWindowWeeks)
		var logins, usage float64
		var count int
		for j := i; j >= 0; j-- {
			prev := series[j]
			if !prev.ActivityDate.After(trailingStart) {
				break
			}
			logins += float64(prev.LoginsCount)
			usage += prev.FeatureUsageScore
			count++
		}

		point := domain.RollingPoint{Week: rec.ActivityDate}
		if count > 0 {
			point.AvgLogins = domain.Defined(logins / float64(count))
			point.AvgUsage = domain.Defined(usage / float64(count))
		} else {
			point.AvgLogins = domain.Undefined()
			point.AvgUsage = domain.Undefined()
		}
		points = append(points, point)
	}
	return points
}

// trendFromRolling compares the latest rolling average against the rolling
// average one trend window earlier. Without a baseline point that far back
// the trend is undefined, never assumed flat or falling.
func trendFromRolling(cfg Config, points []domain.RollingPoint) (usagePct, loginPct domain.Metric) {
	if len(points) == 0 {
		return domain.Undefined(), domain.Undefined()
	}

	latest := points[len(points)-1]
	cutoff := latest.Week.AddDate(0, 0, -7*cfg.TrendWindowWeeks)

	var baseline *domain.RollingPoint
	for i := len(points) - 2; i >= 0; i-- {
		if !points[i].Week.After(cutoff) {
			baseline = &points[i]
			break
		}
	}
	if baseline == nil {
		return domain.Undefined(), domain.Undefined()
	}

	return domain.PctChange(latest.AvgUsage, baseline.AvgUsage),
		domain.PctChange(latest.AvgLogins, baseline.AvgLogins)
}
