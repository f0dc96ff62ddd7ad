package rules

import (
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/domain"
	"github.com/gioariciaga/sql-analysis/internal/scoring/ladder"
)

// MinExpansionScore is the qualification floor: accounts scoring below it
// are not expansion candidates and are dropped from the report.
const MinExpansionScore = 20

type expansionInput struct {
	Plan customerdomain.PlanType
	Agg  domain.WindowAggregate
}

// planCeilingTable scores headroom: heavy usage on a lower plan tier.
// Enterprise accounts have no plan left to expand into.
var planCeilingTable = ladder.Table[expansionInput]{
	Rules: []ladder.Rule[expansionInput]{
		{When: func(in expansionInput) bool {
			return in.Plan == customerdomain.PlanStarter && in.Agg.Current.AvgUsage.GTE(80)
		}, Score: 30},
		{When: func(in expansionInput) bool {
			return in.Plan == customerdomain.PlanStarter && in.Agg.Current.AvgUsage.GTE(60)
		}, Score: 20},
		{When: func(in expansionInput) bool {
			return in.Plan == customerdomain.PlanProfessional && in.Agg.Current.AvgUsage.GTE(90)
		}, Score: 25},
		{When: func(in expansionInput) bool {
			return in.Plan == customerdomain.PlanProfessional && in.Agg.Current.AvgUsage.GTE(75)
		}, Score: 15},
	},
}

var adoptionTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GTE(85) }, Score: 25},
		{When: func(m domain.Metric) bool { return m.GTE(70) }, Score: 15},
	},
}

var growthTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GT(1.3) }, Score: 20},
		{When: func(m domain.Metric) bool { return m.GT(1.15) }, Score: 10},
	},
}

var satisfactionTable = ladder.Table[domain.Metric]{
	Rules: []ladder.Rule[domain.Metric]{
		{When: func(m domain.Metric) bool { return m.GTE(9) }, Score: 15},
		{When: func(m domain.Metric) bool { return m.GTE(8) }, Score: 10},
		{When: func(m domain.Metric) bool { return m.GTE(7) }, Score: 5},
	},
}

// masteryTable rewards self-sufficiency: real usage with little to no
// support load.
var masteryTable = ladder.Table[domain.WindowAggregate]{
	Rules: []ladder.Rule[domain.WindowAggregate]{
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.TicketTotal.EQ(0) && a.Current.AvgUsage.GT(60)
		}, Score: 10},
		{When: func(a domain.WindowAggregate) bool {
			return a.Current.TicketTotal.LTE(1) && a.Current.AvgUsage.GT(60)
		}, Score: 5},
	},
}

// Expansion evaluates the five readiness ladders for one account.
func Expansion(plan customerdomain.PlanType, agg domain.WindowAggregate) domain.ExpansionSignals {
	in := expansionInput{Plan: plan, Agg: agg}
	return domain.ExpansionSignals{
		PlanCeiling:  planCeilingTable.Eval(in),
		Adoption:     adoptionTable.Eval(agg.Current.AvgUsage),
		Growth:       growthTable.Eval(domain.Ratio(agg.Current.AvgUsage, agg.Prior.AvgUsage)),
		Satisfaction: satisfactionTable.Eval(agg.Current.AvgNPS),
		Mastery:      masteryTable.Eval(agg),
	}
}
