package bill

import (
	"github.com/dormhub/dormhub/internal/bill/repository"
	"github.com/dormhub/dormhub/internal/bill/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bill.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
