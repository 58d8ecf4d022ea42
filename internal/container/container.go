package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/config"
	"github.com/oksasatya/bmi-tracker/internal/domain/repository"
	"github.com/oksasatya/bmi-tracker/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/bmi-tracker/internal/infrastructure/postgres"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/metrics"
)

// Container carries the process-wide components built in main. Optional
// integrations stay nil when they are not configured.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	JWT     *helpers.JWTManager
	Metrics *metrics.Metrics

	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	RabbitPub *helpers.RabbitPublisher
	ES        *elasticsearch.Client
	GCS       *storage.Client

	UserRepo repository.UserRepository
	BMIRepo  repository.BMIRepository
}

func New(cfg *config.Config, logger *logrus.Logger) *Container {
	return &Container{
		Config:  cfg,
		Logger:  logger,
		JWT:     helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Metrics: metrics.New(),
	}
}

// WireStorage selects repository adapters: postgres when a pool is set,
// process memory otherwise.
func (c *Container) WireStorage() {
	if c.PGPool != nil {
		c.UserRepo = pginfra.NewUserRepository(c.PGPool)
		c.BMIRepo = pginfra.NewBMIRepository(c.PGPool)
		return
	}
	c.UserRepo = memory.NewUserRepository()
	c.BMIRepo = memory.NewBMIRepository()
}

// Close releases every client that was opened.
func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
