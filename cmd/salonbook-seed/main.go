// Command salonbook-seed loads users and the service catalog from a YAML
// file into the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"salonbook/backend/internal/auth"
	"salonbook/backend/internal/config"
	"salonbook/backend/internal/store/postgres"
)

func main() {
	file := flag.String("file", "seed.yaml", "path to the seed file")
	printTokens := flag.Bool("tokens", false, "print a bearer token for every seeded user")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With(slog.String("service", "salonbook-seed"))

	if err := run(log, *file, *printTokens); err != nil {
		log.Error("seed failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, path string, printTokens bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	seed, err := parseSeed(fh)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	res, err := applySeed(ctx, log, seed, postgres.NewUserRepo(db), postgres.NewServiceRepo(db))
	if err != nil {
		return err
	}
	log.Info("seed applied", slog.Int("users", len(res.Users)), slog.Int("services_created", res.Services))

	if !printTokens {
		return nil
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	for _, u := range res.Users {
		token, err := issuer.Issue(u)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%s\n", u.Email, u.Role, token)
	}
	return nil
}
