package router

import (
	"github.com/oksasatya/bmi-tracker/internal/application"
	"github.com/oksasatya/bmi-tracker/internal/container"
	"github.com/oksasatya/bmi-tracker/internal/infrastructure/search"
	handlers "github.com/oksasatya/bmi-tracker/internal/interface/http"
	"github.com/oksasatya/bmi-tracker/internal/router/modules"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
)

func buildBMIService(c *container.Container) *application.BMIService {
	svc := application.NewBMIService(c.BMIRepo, c.Logger)
	// assign optional collaborators only when present so the interfaces stay nil
	if c.Metrics != nil {
		svc.Metrics = c.Metrics
	}
	if c.ES != nil {
		svc.Indexer = search.NewRecordIndexer(c.ES, c.Config.ESRecordsIndex)
	}
	if c.GCS != nil && c.Config.GCSBucket != "" {
		svc.Uploader = helpers.NewGCSUploader(c.GCS, c.Config.GCSBucket)
	}
	return svc
}

func buildUserService(c *container.Container) *application.UserService {
	svc := application.NewUserService(c.UserRepo, c.JWT, c.Redis, c.Logger, c.Config)
	if c.RabbitPub != nil {
		svc.Emails = c.RabbitPub
	}
	return svc
}

// InitModules builds services from the container and registers every
// feature module. Call once at startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	bmiHandler := handlers.NewBMIHandler(buildBMIService(c), c.Logger)
	authHandler := handlers.NewAuthHandler(buildUserService(c), c.Logger)

	r.Add(modules.NewHealthModule())
	r.Add(modules.NewAuthModule(authHandler, c))
	r.Add(modules.NewBMIModule(bmiHandler, c))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(r.Engine, c))
	}
}
