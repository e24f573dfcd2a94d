package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/platebook/platebook/internal/clock"
	"github.com/platebook/platebook/internal/migration"
	"github.com/platebook/platebook/internal/observability"
	"github.com/platebook/platebook/internal/scheduler"
	"github.com/platebook/platebook/internal/server"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
