package main

import (
	"go.uber.org/fx"

	"github.com/andrasnagy-data/weekplan/internal/components/activity"
	"github.com/andrasnagy-data/weekplan/internal/server"
	"github.com/andrasnagy-data/weekplan/internal/shared/config"
	"github.com/andrasnagy-data/weekplan/internal/shared/events"
	"github.com/andrasnagy-data/weekplan/internal/shared/logging"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			events.NewPublisher,
			activity.NewStore,
			activity.NewService,
			func(store activity.Store) *server.HealthSrvc {
				return server.NewHealthSrvc(store)
			},
			fx.Annotate(server.NewHealthHandler, fx.ResultTags(`name:"healthHandler"`)),
			fx.Annotate(activity.NewPageHandler, fx.ResultTags(`name:"pageHandler"`)),
			fx.Annotate(activity.NewRouter, fx.ResultTags(`name:"activityRouter"`)),
			fx.Annotate(activity.NewAPIRouter, fx.ResultTags(`name:"apiRouter"`)),
			server.NewServer,
		),
		fx.Invoke((*server.Server).Start),
	).Run()
}
