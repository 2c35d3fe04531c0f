package payment

import (
	"github.com/dormhub/dormhub/internal/payment/repository"
	"github.com/dormhub/dormhub/internal/payment/service"
	"github.com/dormhub/dormhub/internal/payment/vnpay"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(vnpay.New),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
