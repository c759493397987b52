package orderprofile

import (
	"github.com/smallbiznis/orderpulse/internal/orderprofile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("orderprofile",
	fx.Provide(
		service.NewService,
	),
)
