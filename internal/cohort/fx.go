package cohort

import (
	"go.uber.org/fx"

	"github.com/gioariciaga/sql-analysis/internal/cohort/service"
)

var Module = fx.Module("cohort",
	fx.Provide(service.New),
)
