package collector

import (
	"go.uber.org/fx"

	"github.com/kidoz/clamav-report-go/internal/transport"
)

// Module provides all collector dependencies for fx injection.
var Module = fx.Module("collector",
	fx.Provide(
		New,
		transport.New,
	),
)
