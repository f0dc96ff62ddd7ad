// Package rank turns numeric scores into labeled tiers with recommended
// actions, and fixes the output ordering of every report.
package rank

import (
	"math"

	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
)

// Band is one classification tier. Bands are evaluated top to bottom and
// the first band whose Min the score reaches wins, so a band list must be
// ordered by descending Min with a catch-all last.
type Band struct {
	Min    float64
	Label  string
	Action string
}

// HealthBands grade the composite health score.
var HealthBands = []Band{
	{Min: 80, Label: "A", Action: "Maintain cadence; candidate for case study"},
	{Min: 60, Label: "B", Action: "Standard quarterly check-in"},
	{Min: 40, Label: "C", Action: "Schedule proactive outreach"},
	{Min: 20, Label: "D", Action: "Escalate to success manager"},
	{Min: math.Inf(-1), Label: "F", Action: "Immediate intervention required"},
}

// ChurnBands tier the churn risk score.
var ChurnBands = []Band{
	{Min: 60, Label: "Critical", Action: "Executive escalation within 48 hours"},
	{Min: 40, Label: "High", Action: "Success manager outreach this week"},
	{Min: 20, Label: "Medium", Action: "Monitor and add to watch list"},
	{Min: math.Inf(-1), Label: "Low", Action: "No action needed"},
}

// ExpansionBands tier the expansion readiness score.
var ExpansionBands = []Band{
	{Min: 60, Label: "Hot", Action: "Sales outreach with upgrade proposal"},
	{Min: 40, Label: "Warm", Action: "Share plan comparison and usage report"},
	{Min: 20, Label: "Developing", Action: "Nurture with feature education"},
	{Min: math.Inf(-1), Label: "Early", Action: "Continue onboarding support"},
}

// TrendBands tier the usage trend score, which can go negative.
var TrendBands = []Band{
	{Min: 30, Label: "Strong Growth", Action: "Flag for expansion review"},
	{Min: 10, Label: "Improving", Action: "Reinforce recent adoption wins"},
	{Min: -10, Label: "Stable", Action: "Standard cadence"},
	{Min: -30, Label: "Declining", Action: "Investigate drop in engagement"},
	{Min: math.Inf(-1), Label: "Sharp Decline", Action: "Urgent re-engagement campaign"},
}

// Classify returns the label and action of the first band score reaches.
func Classify(bands []Band, score float64) (label, action string) {
	for _, b := range bands {
		if score >= b.Min {
			return b.Label, b.Action
		}
	}
	return "", ""
}

// Less fixes the report row ordering: primary score in the requested
// direction, then MRR descending so higher-revenue accounts surface first
// among ties, then customer ID ascending so runs are deterministic.
func Less(scoreI, scoreJ float64, descending bool, refI, refJ domain.AccountRef) bool {
	if scoreI != scoreJ {
		if descending {
			return scoreI > scoreJ
		}
		return scoreI < scoreJ
	}
	if refI.MRR != refJ.MRR {
		return refI.MRR > refJ.MRR
	}
	return refI.CustomerID < refJ.CustomerID
}

// Truncate caps rows at limit, leaving the slice alone when limit is
// non-positive or already satisfied.
func Truncate[T any](rows []T, limit int) []T {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}
