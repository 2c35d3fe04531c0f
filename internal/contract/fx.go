package contract

import (
	"github.com/dormhub/dormhub/internal/contract/repository"
	"github.com/dormhub/dormhub/internal/contract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
