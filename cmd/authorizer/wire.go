//go:build wireinject

package main

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gatewarden/gatewarden/x/gate"
	"github.com/gatewarden/gatewarden/x/group"
	"github.com/gatewarden/gatewarden/x/policy"
	"github.com/gatewarden/gatewarden/x/token"
	"github.com/gatewarden/gatewarden/x/util"
)

var gateHandlerProvider = wire.NewSet(gate.NewHandler, policy.NewService, policy.NewRepository, token.NewService, token.NewRepository)
var groupHandlerProvider = wire.NewSet(group.NewHandler, group.NewService, group.NewRepository)

func SetupGateHandler(rdb *redis.Client, mc *memcache.Client, config util.Config) gate.Handler {
	wire.Build(gateHandlerProvider)
	return nil
}

func SetupGroupHandler(db *gorm.DB, rdb *redis.Client, config util.Config) group.Handler {
	wire.Build(groupHandlerProvider)
	return nil
}
