package cli

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"roster-server-go/config"
	"roster-server-go/db"
	"roster-server-go/models"
	"roster-server-go/resource"
)

// app is the wired set of stores and managers shared by the commands.
type app struct {
	db       *sql.DB
	redis    *redis.Client
	classes  *resource.Manager[*models.ClassRecord]
	students *resource.Manager[*models.StudentRecord]
}

// openApp opens the database, connects the cache when configured and builds the managers.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	sqlDB, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("opened database", "path", cfg.Database.Path)

	a := &app{db: sqlDB}

	var (
		classStore   resource.Store[*models.ClassRecord]   = db.NewClassStore(sqlDB)
		studentStore resource.Store[*models.StudentRecord] = db.NewStudentStore(sqlDB)
	)

	if cfg.Redis.Enabled() {
		client, err := db.InitializeRedisClient(ctx, db.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		a.redis = client

		cache := db.NewRedisCache(client)
		classStore = db.NewCachedStore(classStore, cache, models.KindClass, cfg.Redis.TTL, logger)
		studentStore = db.NewCachedStore(studentStore, cache, models.KindStudent, cfg.Redis.TTL, logger)
	}

	a.classes = resource.NewManager(models.KindClass, classStore, logger)
	a.students = resource.NewManager(models.KindStudent, studentStore, logger)
	return a, nil
}

func (a *app) Close() error {
	if a.redis != nil {
		a.redis.Close()
	}
	return a.db.Close()
}
