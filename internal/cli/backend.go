package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/shoplist/internal/config"
	redisInfra "github.com/fastygo/shoplist/internal/infrastructure/redis"
	"github.com/fastygo/shoplist/internal/toast"
	"github.com/fastygo/shoplist/pkg/itemsapi"
	boltRepo "github.com/fastygo/shoplist/repository/bolt"
	redisRepo "github.com/fastygo/shoplist/repository/redis"
	"github.com/fastygo/shoplist/usecase/shoplist"
)

// Opener builds a controller and returns a function that releases it.
type Opener func(ctx context.Context, toastOpts toast.Options) (*shoplist.Controller, func() error, error)

// DefaultOpener picks the backend named in cfg.Client.Backend.
func DefaultOpener(cfg *config.Config, logger *zap.Logger) Opener {
	return func(ctx context.Context, toastOpts toast.Options) (*shoplist.Controller, func() error, error) {
		if toastOpts.Duration == 0 {
			toastOpts.Duration = cfg.Client.ToastTime
		}
		if toastOpts.Fade == 0 {
			toastOpts.Fade = cfg.Client.FadeTime
		}
		opts := shoplist.Options{Toast: toastOpts, Logger: logger}

		switch cfg.Client.Backend {
		case config.BackendRemote:
			client := itemsapi.New(cfg.Client.BaseURL,
				itemsapi.WithTimeout(cfg.Client.Timeout),
				itemsapi.WithLogger(logger))
			ctrl := shoplist.NewRemote(client, opts)
			return ctrl, closeAll(ctrl, nil), nil

		case config.BackendBolt:
			store, err := boltRepo.Open(cfg.Client.BoltPath)
			if err != nil {
				return nil, nil, err
			}
			ctrl := shoplist.NewLocal(store, opts)
			return ctrl, closeAll(ctrl, store.Close), nil

		case config.BackendRedis:
			client, err := redisInfra.NewClient(ctx, cfg.Redis)
			if err != nil {
				return nil, nil, err
			}
			ctrl := shoplist.NewLocal(redisRepo.NewListStore(client, cfg.Redis.Key), opts)
			return ctrl, closeAll(ctrl, client.Close), nil

		default:
			return nil, nil, fmt.Errorf("unknown backend %q", cfg.Client.Backend)
		}
	}
}

func closeAll(ctrl *shoplist.Controller, release func() error) func() error {
	return func() error {
		ctrl.Close()
		if release != nil {
			return release()
		}
		return nil
	}
}
