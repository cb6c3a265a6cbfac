package notification

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nikoksr/notify"
	"github.com/rs/zerolog"

	"pitwallrelay/pkg/model"
	"pitwallrelay/pkg/settings"
)

// Lister resolves which chats want alerts of a given category.
type Lister interface {
	RecipientsFor(category string) ([]settings.Recipient, error)
}

// Manager is the local Telegram alert sink. It consumes alerts off the
// pubsub channel and forwards each one to the chats whose preferences enable
// that category, so alerts keep flowing locally whatever the relay is doing.
type Manager struct {
	bot    *tgbotapi.BotAPI
	lister Lister
	log    zerolog.Logger
}

func NewManager(bot *tgbotapi.BotAPI, lister Lister, log zerolog.Logger) *Manager {
	return &Manager{
		bot:    bot,
		lister: lister,
		log:    log.With().Str("component", "notification").Logger(),
	}
}

// Start drains the alert channel until the context ends.
func (m *Manager) Start(ctx context.Context, alerts <-chan model.Alert) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-alerts:
			m.forward(ctx, alert)
		}
	}
}

func (m *Manager) forward(ctx context.Context, alert model.Alert) {
	recipients, err := m.lister.RecipientsFor(alert.Category)
	if err != nil {
		m.log.Warn().Err(err).Str("category", alert.Category).Msg("listing recipients failed")
		return
	}
	if len(recipients) == 0 {
		return
	}

	tg := &Telegram{}
	tg.SetClient(m.bot)
	for _, r := range recipients {
		chatID, err := strconv.ParseInt(r.ChatID, 10, 64)
		if err != nil {
			m.log.Warn().Str("chatId", r.ChatID).Msg("skipping malformed chat id")
			continue
		}
		tg.AddReceivers(chatID)
	}

	n := notify.NewWithServices(tg)
	if err := n.Send(ctx, "Pit wall:", alert.Text); err != nil {
		m.log.Warn().Err(err).Msg("alert notification failed")
	}
}
