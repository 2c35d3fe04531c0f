package main

import (
	"github.com/dormhub/dormhub/internal/server"
	"go.uber.org/fx"
)

func main() {
	fx.New(server.Module).Run()
}
