package wizard

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("wizard",
	fx.Provide(NewStore),
	fx.Invoke(registerJanitor),
)

func registerJanitor(lc fx.Lifecycle, store *Store, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting wizard session janitor")
			go store.runJanitor(ctx, sweepInterval)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
