package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"pitwallrelay/pkg/model"
	"pitwallrelay/pkg/settings"
)

// PreferenceStore is the settings surface the listener manages.
type PreferenceStore interface {
	Register(chatID, name string) error
	Toggle(chatID, name, category string) error
	Preferences(chatID string) (settings.Preferences, error)
}

// Listener consumes Telegram updates and maps chat commands onto the
// preference store: /start subscribes a chat, /opponents, /spotter, /strategy
// and /damage toggle categories, /alerts shows the current state.
type Listener struct {
	bot   *tgbotapi.BotAPI
	store PreferenceStore
	log   zerolog.Logger
}

func NewListener(bot *tgbotapi.BotAPI, store PreferenceStore, log zerolog.Logger) *Listener {
	return &Listener{
		bot:   bot,
		store: store,
		log:   log.With().Str("component", "listener").Logger(),
	}
}

// Run drains the bot's update channel until the context ends.
func (l *Listener) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := l.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			l.handleUpdate(update)
		}
	}
}

func (l *Listener) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || !msg.IsCommand() {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	reply, err := l.handleCommand(chatID, msg.From.FirstName, msg.Command())
	if err != nil {
		l.log.Warn().Err(err).Str("chatId", chatID).Msg("handling chat command failed")
		return
	}
	if reply == "" {
		return
	}
	if _, err := l.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		l.log.Warn().Err(err).Str("chatId", chatID).Msg("sending reply failed")
	}
}

// handleCommand runs one chat command against the store and returns the reply
// text. Unrecognized commands reply with nothing.
func (l *Listener) handleCommand(chatID, name, command string) (string, error) {
	switch command {
	case "start":
		if err := l.store.Register(chatID, name); err != nil {
			return "", err
		}
		return "Subscribed to pit wall alerts. Toggle categories with /opponents, /spotter, /strategy or /damage; /alerts shows the current state.", nil
	case "alerts":
		return l.renderPreferences(chatID)
	case model.CategoryOpponents, model.CategorySpotter, model.CategoryStrategy, model.CategoryDamage:
		if err := l.store.Toggle(chatID, name, command); err != nil {
			return "", err
		}
		return l.renderPreferences(chatID)
	}
	return "", nil
}

func (l *Listener) renderPreferences(chatID string) (string, error) {
	p, err := l.store.Preferences(chatID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Alert categories:")
	for _, category := range model.Categories() {
		state := "off"
		if p[category] {
			state = "on"
		}
		fmt.Fprintf(&b, "\n/%s: %s", category, state)
	}
	return b.String(), nil
}
