package reading

import (
	"github.com/dormhub/dormhub/internal/reading/repository"
	"github.com/dormhub/dormhub/internal/reading/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reading.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
