package activity

import (
	"github.com/gioariciaga/sql-analysis/internal/activity/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("activity",
	fx.Provide(repository.Provide),
)
