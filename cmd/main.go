package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi"
	"github.com/go-chi/docgen"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/room-reservation/config"
	"github.com/sksmith/room-reservation/queue"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	flag.Parse()

	cfg := config.Load("config")

	configLogging(cfg)
	printLogHeader(cfg)
	cfg.Print()

	repos, err := configRepositories(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure the repositories")
	}

	var bq *bunnyq.BunnyQ
	if !cfg.RabbitMQ.Mock.Value {
		log.Info().Msg("connecting to rabbitmq...")
		bq = rabbit(ctx, cfg)
	}
	pub := configPublisher(cfg, bq)

	app := newApplication(cfg, repos, pub)
	if err = app.ensureAdmin(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to create the administrator")
	}

	log.Info().Msg("configuring router...")
	r := app.router(cfg)

	if *config.GenerateRoutes {
		fmt.Println(routesDoc(r))
		return
	}

	if bq != nil {
		units := queue.NewUnitQueue(bq, cfg.RabbitMQ.Unit.Queue.Value, cfg.RabbitMQ.Unit.Dlt.Exchange.Value,
			cfg.Reservation.CalendarHorizonDays.Value)
		go app.consumeUnits(ctx, cfg, units)
	}

	serve(ctx, cfg, r)
}

func serve(ctx context.Context, cfg *config.Config, r chi.Router) {
	srv := &http.Server{Addr: ":" + cfg.Port.Value, Handler: r}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down cleanly")
		}
	}()

	log.Info().Str("port", cfg.Port.Value).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func routesDoc(r chi.Router) string {
	return docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
		ProjectPath: "github.com/sksmith/room-reservation",
		Intro:       "Routes of the " + config.AppName + " service.",
	})
}

func configPublisher(cfg *config.Config, bq *bunnyq.BunnyQ) queue.Publisher {
	if cfg.RabbitMQ.Mock.Value || bq == nil {
		log.Info().Msg("creating mock queue...")
		return queue.NewMockPublisher()
	}
	return queue.NewRabbit(bq)
}

func rabbit(ctx context.Context, cfg *config.Config) *bunnyq.BunnyQ {
	osChannel := make(chan os.Signal, 1)
	signal.Notify(osChannel, syscall.SIGTERM)

	return bunnyq.New(ctx,
		bunnyq.Address{
			User: cfg.RabbitMQ.User.Value,
			Pass: cfg.RabbitMQ.Pass.Value,
			Host: cfg.RabbitMQ.Host.Value,
			Port: cfg.RabbitMQ.Port.Value,
		},
		osChannel,
		bunnyq.LogHandler(logger{}),
	)
}

type logger struct {
}

func (l logger) Log(_ context.Context, level bunnyq.LogLevel, msg string, data map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case bunnyq.LogLevelTrace:
		evt = log.Trace()
	case bunnyq.LogLevelDebug:
		evt = log.Debug()
	case bunnyq.LogLevelWarn:
		evt = log.Warn()
	case bunnyq.LogLevelError:
		evt = log.Error()
	default:
		evt = log.Info()
	}

	for k, v := range data {
		evt.Interface(k, v)
	}

	evt.Msg(msg)
}

func printLogHeader(cfg *config.Config) {
	if cfg.Log.Structured.Value {
		log.Info().Str("application", cfg.AppName.Value).
			Str("revision", cfg.Revision.Value).
			Str("version", cfg.AppVersion.Value).
			Str("sha1ver", cfg.Sha1Version.Value).
			Str("build-time", cfg.BuildTime.Value).
			Str("profile", cfg.Profile.Value).
			Str("config-source", cfg.Config.Source.Value).
			Str("config-branch", cfg.Config.Spring.Branch.Value).
			Send()
		return
	}

	f := figure.NewFigure(cfg.AppName.Value, "", true)
	f.Print()

	log.Info().Msg("=============================================")
	log.Info().Msg(fmt.Sprintf("       Revision: %s", cfg.Revision.Value))
	log.Info().Msg(fmt.Sprintf("        Profile: %s", cfg.Profile.Value))
	log.Info().Msg(fmt.Sprintf("  Config Server: %s - %s", cfg.Config.Source.Value, cfg.Config.Spring.Branch.Value))
	log.Info().Msg(fmt.Sprintf("    Tag Version: %s", cfg.AppVersion.Value))
	log.Info().Msg(fmt.Sprintf("   Sha1 Version: %s", cfg.Sha1Version.Value))
	log.Info().Msg(fmt.Sprintf("     Build Time: %s", cfg.BuildTime.Value))
	log.Info().Msg("=============================================")
}

func configLogging(cfg *config.Config) {
	log.Info().Msg("configuring logging...")

	if !cfg.Log.Structured.Value {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(cfg.Log.Level.Value)
	if err != nil {
		log.Warn().Str("loglevel", cfg.Log.Level.Value).Err(err).Msg("defaulting to info")
		level = zerolog.InfoLevel
	}
	log.Info().Str("loglevel", level.String()).Msg("setting log level")
	zerolog.SetGlobalLevel(level)
}
