package main

import (
	"context"

	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/api"
	"github.com/sksmith/room-reservation/config"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/core/user"
	"github.com/sksmith/room-reservation/db"
	"github.com/sksmith/room-reservation/db/catrepo"
	"github.com/sksmith/room-reservation/db/invrepo"
	"github.com/sksmith/room-reservation/db/memrepo"
	"github.com/sksmith/room-reservation/db/resrepo"
	"github.com/sksmith/room-reservation/db/usrrepo"
	"github.com/sksmith/room-reservation/invoice"
	"github.com/sksmith/room-reservation/notify"
	"github.com/sksmith/room-reservation/queue"
)

const invoicePrefix = "INV"

type repositories struct {
	inventory    inventory.Repository
	reservations reservation.Repository
	catalog      catalog.Repository
	users        user.Repository
}

func memRepositories(store *memrepo.Store) repositories {
	return repositories{
		inventory:    store.Inventory(),
		reservations: store.Reservations(),
		catalog:      store.Catalog(),
		users:        store.Users(),
	}
}

func configRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	if cfg.Db.InMemory.Value {
		log.Info().Msg("using the in memory store...")
		return memRepositories(memrepo.NewStore()), nil
	}

	dbPool, err := db.ConnectDb(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}

	cacheSize := cfg.Cache.Size.Value
	return repositories{
		inventory:    invrepo.NewPostgresRepo(dbPool),
		reservations: resrepo.NewPostgresRepo(dbPool),
		catalog:      catrepo.NewPostgresRepo(dbPool, cacheSize),
		users:        usrrepo.NewPostgresRepo(dbPool, cacheSize),
	}, nil
}

type application struct {
	inventory    inventory.Service
	reservations reservation.Service
	users        user.Service
}

func newApplication(cfg *config.Config, repos repositories, pub queue.Publisher) *application {
	updates := queue.New(pub, cfg.RabbitMQ.Inventory.Exchange.Value, cfg.RabbitMQ.Reservation.Exchange.Value)

	log.Info().Msg("creating inventory service...")
	maxNights := cfg.Reservation.MaxNights.Value
	if horizon := cfg.Reservation.CalendarHorizonDays.Value; horizon > maxNights {
		log.Warn().Int("calendarHorizonDays", horizon).Int("maxNights", maxNights).
			Msg("calendar horizon exceeds the longest accepted range, new units will not get a calendar")
	}
	calendar := inventory.NewCalendar(repos.inventory, repos.catalog, int64(cfg.Reservation.DefaultCapacity.Value),
		inventory.WithMaxNights(maxNights))
	mutator := inventory.NewMutator(repos.inventory, calendar)
	inventoryService := inventory.NewService(repos.inventory, repos.catalog, updates, calendar)

	log.Info().Msg("creating user service...")
	userService := user.NewService(repos.users)

	log.Info().Msg("creating reservation service...")
	options := []reservation.Option{
		reservation.WithQueue(updates),
		reservation.WithInventoryPublisher(inventoryService),
		reservation.WithInvoiceGenerator(invoice.NewGenerator(invoicePrefix)),
		reservation.WithCancellationCutoff(cfg.Reservation.CancellationCutoff.Value),
	}
	if n := configNotifier(cfg, pub); n != nil {
		options = append(options, reservation.WithNotifier(n))
	}
	reservationService := reservation.NewService(repos.reservations, repos.catalog, repos.users, repos.inventory,
		calendar, mutator, options...)

	return &application{
		inventory:    inventoryService,
		reservations: reservationService,
		users:        userService,
	}
}

// configNotifier returns nil when notifications should only be logged.
func configNotifier(cfg *config.Config, pub queue.Publisher) reservation.Notifier {
	switch cfg.Notify.Mode.Value {
	case "gateway":
		log.Info().Str("url", cfg.Notify.Gateway.Url.Value).Msg("notifying users through the gateway...")
		return notify.NewGateway(cfg.Notify.Gateway.Url.Value, cfg.Notify.Gateway.Token.Value, cfg.Notify.Gateway.Timeout.Value)
	case "queue":
		log.Info().Str("exchange", cfg.RabbitMQ.Notification.Exchange.Value).Msg("notifying users through the queue...")
		return notify.NewQueueNotifier(pub, cfg.RabbitMQ.Notification.Exchange.Value)
	case "log":
		return nil
	default:
		log.Warn().Str("mode", cfg.Notify.Mode.Value).Msg("unrecognized notify mode, notifications will only be logged")
		return nil
	}
}

func (a *application) router(cfg *config.Config) chi.Router {
	return api.ConfigureRouter(cfg, a.inventory, a.reservations, a.reservations, a.users)
}

// ensureAdmin creates the configured administrator unless it already exists.
func (a *application) ensureAdmin(ctx context.Context, cfg *config.Config) error {
	username, password := cfg.Admin.User.Value, cfg.Admin.Pass.Value
	if username == "" || password == "" {
		return nil
	}

	_, err := a.users.Get(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	log.Info().Str("username", username).Msg("creating administrator...")
	_, err = a.users.Create(ctx, user.CreateUserRequest{Username: username, IsAdmin: true, PlainTextPassword: password})
	return err
}

func (a *application) consumeUnits(ctx context.Context, cfg *config.Config, units *queue.UnitQueue) {
	log.Info().Str("queue", cfg.RabbitMQ.Unit.Queue.Value).Msg("consuming units...")
	units.ConsumeUnits(ctx, a.inventory)
}
