package migration

import (
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	"github.com/gioariciaga/sql-analysis/internal/config"
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	"github.com/gioariciaga/sql-analysis/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Dev and test databases skip versioned migrations.
			if err := conn.AutoMigrate(&customerdomain.Customer{}, &activitydomain.ActivityRecord{}); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.LoadDemoData(conn, time.Now())
		}
		return nil
	}),
)
