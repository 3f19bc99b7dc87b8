package main

import (
	"context"
	"log/slog"

	"salonbook/backend/internal/config"
	"salonbook/backend/internal/store"
	"salonbook/backend/internal/store/memory"
	"salonbook/backend/internal/store/postgres"
)

type storage struct {
	scheduler    store.Scheduler
	appointments store.AppointmentRepository
	availability store.AvailabilityRepository
	services     store.ServiceRepository
	users        store.UserRepository
	close        func()
}

// openStorage logs its own failures so main can simply exit.
func openStorage(ctx context.Context, log *slog.Logger, cfg config.Config) (storage, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		db := memory.New()
		return storage{
			scheduler:    memory.NewScheduler(db),
			appointments: memory.NewAppointmentRepo(db),
			availability: memory.NewAvailabilityRepo(db),
			services:     memory.NewServiceRepo(db),
			users:        memory.NewUserRepo(db),
			close:        func() {},
		}, nil
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return storage{}, err
	}
	return storage{
		scheduler:    postgres.NewScheduler(db),
		appointments: postgres.NewAppointmentRepo(db),
		availability: postgres.NewAvailabilityRepo(db),
		services:     postgres.NewServiceRepo(db),
		users:        postgres.NewUserRepo(db),
		close: func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		},
	}, nil
}
