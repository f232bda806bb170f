//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"toolusage/internal/domain"
)

func InitializeApplication(ctx context.Context, cfg domain.Config, logging LoggingConfig) (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
