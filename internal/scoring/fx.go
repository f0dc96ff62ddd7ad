package scoring

import (
	"go.uber.org/fx"

	"github.com/gioariciaga/sql-analysis/internal/scoring/service"
)

var Module = fx.Module("scoring",
	fx.Provide(service.New),
)
