package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/migration"
	"github.com/smallbiznis/comercia/internal/observability"
	"github.com/smallbiznis/comercia/internal/server"
	"github.com/smallbiznis/comercia/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
