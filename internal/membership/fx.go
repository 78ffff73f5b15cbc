package membership

import (
	"github.com/smallbiznis/comercia/internal/membership/repository"
	"github.com/smallbiznis/comercia/internal/membership/service"
	"go.uber.org/fx"
)

var Module = fx.Module("membership",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
