package customer

import (
	"github.com/gioariciaga/sql-analysis/internal/customer/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(repository.Provide),
)
