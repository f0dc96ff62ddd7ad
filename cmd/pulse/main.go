package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/gioariciaga/sql-analysis/internal/activity"
	"github.com/gioariciaga/sql-analysis/internal/clock"
	"github.com/gioariciaga/sql-analysis/internal/cohort"
	"github.com/gioariciaga/sql-analysis/internal/config"
	"github.com/gioariciaga/sql-analysis/internal/customer"
	"github.com/gioariciaga/sql-analysis/internal/migration"
	"github.com/gioariciaga/sql-analysis/internal/observability"
	"github.com/gioariciaga/sql-analysis/internal/scoring"
	"github.com/gioariciaga/sql-analysis/internal/server"
	"github.com/gioariciaga/sql-analysis/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domains
		customer.Module,
		activity.Module,
		scoring.Module,
		cohort.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
