package report

import (
	"go.uber.org/fx"
)

// Module provides report dependencies for fx injection.
var Module = fx.Module("report",
	fx.Provide(
		NewAggregator,
	),
)
