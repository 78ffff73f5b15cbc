package catalog

import (
	"github.com/smallbiznis/comercia/internal/cache"
	"github.com/smallbiznis/comercia/internal/catalog/repository"
	"github.com/smallbiznis/comercia/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(cache.NewProductLookupCache),
	fx.Provide(service.New),
)
