package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/tool"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/catalog"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/reservation"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/transaction"
	configx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/config"
	postgresx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/postgres"
	qstashx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/qstash"
)

const (
	backendFile     = "file"
	backendPostgres = "postgres"
	backendMemory   = "memory"
	backendUpstash  = "upstash"
)

type AppConfig struct {
	RestaurantDataFile  string `envconfig:"RESTAURANT_DATA_FILE" default:"data/restaurants.json"`
	ReservationDataFile string `envconfig:"RESERVATION_DATA_FILE" default:"data/reservations.json"`
	ReservationBackend  string `envconfig:"RESERVATION_BACKEND" default:"file"`
	SessionBackend      string `envconfig:"SESSION_BACKEND" default:"memory"`
	MaxToolRounds       int    `envconfig:"MAX_TOOL_ROUNDS" default:"5"`
	MaxMessages         int    `envconfig:"MAX_MESSAGES" default:"60"`
}

// app wires the booking core. It is shared by every subcommand that touches data.
type app struct {
	cfg          *AppConfig
	catalog      *catalog.Store
	reservations *reservation.Store
	service      *transaction.Service
	registry     *tool.Registry
	db           *bun.DB
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := configx.New[AppConfig]("")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}

	a := &app{cfg: cfg}

	snap, err := a.snapshotter(ctx)
	if err != nil {
		return nil, err
	}

	// Load failures degrade to empty collections; the error is reported, not fatal.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store, err := catalog.Load(gctx, cfg.RestaurantDataFile)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.RestaurantDataFile).Msg("restaurant catalog not loaded")
		}
		a.catalog = store
		return nil
	})
	g.Go(func() error {
		store, err := reservation.Open(gctx, snap)
		if err != nil {
			log.Warn().Err(err).Str("backend", cfg.ReservationBackend).Msg("reservations not loaded")
		}
		a.reservations = store
		return nil
	})
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	var opts []transaction.Option
	if n := a.notifier(); n != nil {
		opts = append(opts, transaction.WithNotifier(n))
	}
	a.service = transaction.NewService(a.catalog, a.reservations, opts...)
	a.registry = tool.NewGoodFoods(a.catalog, a.service)

	log.Info().
		Int("restaurants", a.catalog.Len()).
		Int("reservations", len(a.reservations.All())).
		Msg("booking core ready")
	return a, nil
}

func (a *app) snapshotter(ctx context.Context) (reservation.Snapshotter, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.ReservationBackend)) {
	case "", backendFile:
		snap := reservation.NewFileSnapshotter(a.cfg.ReservationDataFile)
		log.Info().Str("path", snap.Path()).Msg("reservations stored in file")
		return snap, nil
	case backendPostgres:
		pgCfg, err := configx.New[postgresx.Config]("POSTGRES")
		if err != nil {
			return nil, fmt.Errorf("load postgres config: %w", err)
		}
		db, err := postgresx.Open(ctx, *pgCfg)
		if err != nil {
			return nil, err
		}
		snap := reservation.NewPostgresSnapshotter(db)
		if err := initOrClose(ctx, db, snap.Init); err != nil {
			return nil, fmt.Errorf("init reservations table: %w", err)
		}
		a.db = db
		return snap, nil
	default:
		return nil, fmt.Errorf("unknown reservation backend %q", a.cfg.ReservationBackend)
	}
}

// initOrClose runs init and closes db when it fails.
func initOrClose(ctx context.Context, db *bun.DB, init func(context.Context) error) error {
	if err := init(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close postgres")
		}
		return err
	}
	return nil
}

// notifier returns a QStash-backed notifier when a destination is configured.
func (a *app) notifier() transaction.Notifier {
	cfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil || strings.TrimSpace(cfg.Destination) == "" {
		return nil
	}
	client, err := qstashx.NewClient(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("qstash disabled")
		return nil
	}
	log.Info().Str("destination", cfg.Destination).Msg("reservation events enabled")
	return transaction.NewPublishingNotifier(client, cfg.Destination)
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close postgres")
		}
	}
}
