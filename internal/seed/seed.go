// Package seed loads a small deterministic demo dataset so a fresh
// install renders non-empty reports.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	activityrepo "github.com/gioariciaga/sql-analysis/internal/activity/repository"
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	customerrepo "github.com/gioariciaga/sql-analysis/internal/customer/repository"
)

type account struct {
	name       string
	plan       customerdomain.PlanType
	signupPlan customerdomain.PlanType
	status     customerdomain.Status
	industry   string
	owner      string
	mrr        float64
	signupMRR  float64
	monthsAgo  int

	// weekly activity, newest week first; nps < 0 means no response
	weeks []week
}

type week struct {
	logins  int
	usage   float64
	tickets int
	nps     int
}

var demoAccounts = []account{
	{
		name: "Northwind Analytics", plan: customerdomain.PlanProfessional,
		signupPlan: customerdomain.PlanStarter, status: customerdomain.StatusActive,
		industry: "analytics", owner: "dana", mrr: 499, signupMRR: 99, monthsAgo: 14,
		weeks: []week{
			{44, 92, 0, 9}, {41, 90, 0, -1}, {45, 91, 1, 9}, {42, 88, 0, -1},
			{40, 86, 0, 9}, {39, 85, 0, -1}, {38, 84, 0, 8}, {37, 83, 1, -1},
		},
	},
	{
		name: "Beacon Logistics", plan: customerdomain.PlanStarter,
		signupPlan: customerdomain.PlanStarter, status: customerdomain.StatusActive,
		industry: "logistics", owner: "dana", mrr: 99, signupMRR: 99, monthsAgo: 5,
		weeks: []week{
			{35, 82, 0, 8}, {33, 80, 0, -1}, {30, 76, 1, -1}, {28, 72, 0, 8},
			{26, 68, 0, -1}, {24, 64, 1, -1}, {22, 60, 0, 7}, {20, 58, 0, -1},
		},
	},
	{
		name: "Cobalt Manufacturing", plan: customerdomain.PlanEnterprise,
		signupPlan: customerdomain.PlanEnterprise, status: customerdomain.StatusAtRisk,
		industry: "manufacturing", owner: "lee", mrr: 1999, signupMRR: 1999, monthsAgo: 9,
		weeks: []week{
			{8, 28, 3, 4}, {9, 30, 2, -1}, {12, 38, 2, 5}, {15, 45, 1, -1},
			{22, 60, 1, 6}, {26, 66, 0, -1}, {30, 72, 0, 7}, {32, 75, 0, -1},
		},
	},
	{
		name: "Harbor Retail", plan: customerdomain.PlanStarter,
		signupPlan: customerdomain.PlanStarter, status: customerdomain.StatusActive,
		industry: "retail", owner: "lee", mrr: 99, signupMRR: 99, monthsAgo: 3,
		weeks: []week{
			{5, 22, 1, -1}, {6, 25, 0, 5},
		},
	},
	{
		name: "Summit Legal", plan: customerdomain.PlanProfessional,
		signupPlan: customerdomain.PlanProfessional, status: customerdomain.StatusChurned,
		industry: "legal", owner: "dana", mrr: 0, signupMRR: 499, monthsAgo: 11,
	},
}

// LoadDemoData inserts the demo accounts and their weekly activity.
// It is a no-op when any customers already exist.
func LoadDemoData(db *gorm.DB, now time.Time) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(9)
	if err != nil {
		return err
	}

	customers := customerrepo.Provide()
	activity := activityrepo.Provide()
	now = now.UTC().Truncate(24 * time.Hour)

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&customerdomain.Customer{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, a := range demoAccounts {
			c := &customerdomain.Customer{
				ID:             node.Generate(),
				CompanyName:    a.name,
				SignupDate:     now.AddDate(0, -a.monthsAgo, 0),
				PlanType:       a.plan,
				SignupPlanType: a.signupPlan,
				Industry:       a.industry,
				AccountOwner:   a.owner,
				Status:         a.status,
				MRR:            a.mrr,
				SignupMRR:      a.signupMRR,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := customers.Insert(ctx, tx, c); err != nil {
				return err
			}

			for i, w := range a.weeks {
				rec := &activitydomain.ActivityRecord{
					ID:                   node.Generate(),
					CustomerID:           c.ID,
					ActivityDate:         now.AddDate(0, 0, -7*(i+1)),
					LoginsCount:          w.logins,
					FeatureUsageScore:    w.usage,
					SupportTicketsOpened: w.tickets,
					CreatedAt:            now,
				}
				if w.nps >= 0 {
					nps := w.nps
					rec.NPSScore = &nps
				}
				if err := activity.Insert(ctx, tx, rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
