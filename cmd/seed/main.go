package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/config"
	"github.com/oksasatya/bmi-tracker/internal/application"
	"github.com/oksasatya/bmi-tracker/internal/container"
	pginfra "github.com/oksasatya/bmi-tracker/internal/infrastructure/postgres"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/validation"
)

// sample measurements, oldest first
var samples = []struct {
	weight, height float64
	age            int
}{
	{82.0, 175, 34},
	{80.5, 175, 34},
	{78.2, 175, 34},
	{76.9, 175, 34},
	{75.0, 175, 35},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	validation.Init()

	if cfg.StorageDriver != config.StoragePostgres {
		logger.Fatal("seeding requires STORAGE_DRIVER=postgres")
	}

	ctx := context.Background()
	c := container.New(cfg, logger)
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	c.PGPool = pool
	c.WireStorage()
	defer c.Close()

	email := getenv("SEED_EMAIL", "demo@example.com")
	password := getenv("SEED_PASSWORD", "password123")
	name := getenv("SEED_NAME", "Demo User")

	// no Redis or email publisher: seeding must not start sessions or send mail
	users := application.NewUserService(c.UserRepo, c.JWT, nil, logger, cfg)
	u, _, err := users.Register(ctx, application.RegisterInput{Name: name, Email: email, Password: password}, application.ClientMeta{})
	switch {
	case errors.Is(err, application.ErrEmailTaken):
		logger.WithField("email", email).Info("seed user already exists, skipping")
		return
	case err != nil:
		logger.WithError(err).Fatal("failed to create seed user")
	}

	bmi := application.NewBMIService(c.BMIRepo, logger)
	for _, s := range samples {
		w, h, a := s.weight, s.height, s.age
		if _, err := bmi.Submit(ctx, u.ID, application.MeasurementInput{Weight: &w, Height: &h, Age: &a}); err != nil {
			logger.WithError(err).Fatal("failed to create seed record")
		}
	}

	logger.WithFields(logrus.Fields{
		"email":   email,
		"records": len(samples),
	}).Info("seed complete")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
