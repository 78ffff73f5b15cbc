package subscription

import (
	"github.com/smallbiznis/comercia/internal/subscription/repository"
	"github.com/smallbiznis/comercia/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
