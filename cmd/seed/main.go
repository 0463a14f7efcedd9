package main

import (
	"context"
	"errors"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/config"
	"github.com/2beens/portfolio/internal/db"
	"github.com/2beens/portfolio/internal/logging"
	"github.com/2beens/portfolio/internal/works"
)

const demoDescription = "Lorem ipsum dolor sit amet, consectetur adipiscing elit."

type demoWork struct {
	slug      string
	title     string
	tags      []string
	year      int
	spanClass string
	isTall    bool
}

var demoWorks = []demoWork{
	{"midnight-garden", "Midnight Garden", []string{"illustration"}, 2026, "span-3", true},
	{"urban-fragments", "Urban Fragments", []string{"photography"}, 2026, "span-2", true},
	{"copper-light", "Copper Light", []string{"illustration", "digital"}, 2026, "span-4", false},
	{"silent-waters", "Silent Waters", []string{"painting"}, 2026, "span-3", true},
	{"folktale-series", "Folktale Series", []string{"illustration"}, 2024, "span-4", false},
	{"the-wanderer", "The Wanderer", []string{"digital"}, 2026, "span-3", true},
	{"neon-botanical", "Neon Botanical", []string{"illustration", "experimental"}, 2026, "span-5", false},
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, cfg); err != nil {
		log.Fatalf("seed: %s", err)
	}
	log.Infoln("seed complete")
}

func seed(ctx context.Context, cfg *config.Config) error {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		return err
	}

	codec, err := auth.NewTokenCodec(cfg.SecretKey)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.NewRepo(dbPool), codec)
	if err != nil {
		return err
	}
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	repo := works.NewRepo(dbPool)
	for i, d := range demoWorks {
		description := demoDescription
		year := d.year
		c := works.WorkCreate{
			Title:       d.title,
			Slug:        d.slug,
			Description: &description,
			Year:        &year,
			Tags:        d.tags,
			SpanClass:   d.spanClass,
			IsTall:      d.isTall,
			SortOrder:   i,
		}
		if err := c.Normalize(); err != nil {
			return err
		}

		w, err := repo.Create(ctx, c)
		if errors.Is(err, works.ErrSlugExists) {
			log.Debugf("work [%s] already there", d.slug)
			continue
		}
		if err != nil {
			return err
		}
		log.Infof("  + work: %s (%s)", w.Slug, w.ID)
	}

	return nil
}
