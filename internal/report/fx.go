package report

import (
	"github.com/smallbiznis/orderpulse/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report",
	fx.Provide(
		service.NewService,
	),
)
