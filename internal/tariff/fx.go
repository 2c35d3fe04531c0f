package tariff

import (
	"github.com/dormhub/dormhub/internal/tariff/repository"
	"github.com/dormhub/dormhub/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
