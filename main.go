package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"pitwallrelay/pkg/config"
	"pitwallrelay/pkg/damage"
	"pitwallrelay/pkg/engine"
	"pitwallrelay/pkg/model"
	"pitwallrelay/pkg/notification"
	"pitwallrelay/pkg/opponents"
	"pitwallrelay/pkg/pubsub"
	"pitwallrelay/pkg/relay"
	"pitwallrelay/pkg/settings"
	"pitwallrelay/pkg/spotter"
	"pitwallrelay/pkg/strategy"
	"pitwallrelay/pkg/telemetry"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// telemetry source; acquisition from a real sim sits behind the same
	// Adapter interface
	adapter := telemetry.NewSimAdapter(time.Now().UnixNano())

	client := relay.NewClient(cfg.Relay, log)
	if cfg.Relay.URL != "" {
		if err := client.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("remote consumer unreachable at startup")
		}
	} else {
		log.Info().Msg("no relay url configured, running local-only")
	}

	alerts := pubsub.NewPubSub[model.Alert]()

	eng := engine.New(
		engine.Config{
			SessionID:    cfg.SessionID,
			PollInterval: cfg.PollInterval(),
			StatusEvery:  cfg.StatusEvery,
		},
		log,
		adapter,
		client,
		opponents.NewTracker(cfg.Opponents, log),
		spotter.NewEngine(cfg.Spotter, log),
		strategy.NewSimulator(cfg.Strategy, log),
		damage.NewAnalyzer(log, nil),
		alerts,
	)
	eng.RegisterHandlers(client)

	// console sink, always on
	go func() {
		ch := alerts.Subscribe(engine.AlertTopic)
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-ch:
				log.Info().Str("category", a.Category).Msg(a.Text)
			}
		}
	}()

	var store *settings.Manager
	if cfg.Telegram.Token != "" {
		store, err = settings.NewManager(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("opening settings store")
		}
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram bot init failed")
		}
		nm := notification.NewManager(bot, store, log)
		go nm.Start(ctx, alerts.Subscribe(engine.AlertTopic))
		go notification.NewListener(bot, store, log).Run(ctx)
	}

	go eng.Run(ctx)
	log.Info().Int("pollHz", cfg.PollHz).Str("sessionId", cfg.SessionID).
		Msg("pit wall relay running, press Ctrl-C to stop")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	cancel()
	client.Disconnect()
	if store != nil {
		store.Close()
	}
	log.Info().Msg("shut down cleanly")
}
