package snapshot

import (
	"github.com/dormhub/dormhub/internal/snapshot/repository"
	"github.com/dormhub/dormhub/internal/snapshot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("snapshot.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
