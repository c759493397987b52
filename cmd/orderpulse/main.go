package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/ingest"
	"github.com/smallbiznis/orderpulse/internal/migration"
	"github.com/smallbiznis/orderpulse/internal/observability"
	"github.com/smallbiznis/orderpulse/internal/orderprofile"
	"github.com/smallbiznis/orderpulse/internal/report"
	"github.com/smallbiznis/orderpulse/internal/scheduler"
	"github.com/smallbiznis/orderpulse/internal/server"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// functional domains
		ingest.Module,
		orderprofile.Module,
		report.Module,
		scheduler.Module,

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
