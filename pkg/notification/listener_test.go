package notification

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitwallrelay/pkg/model"
	"pitwallrelay/pkg/settings"
)

type stubStore struct {
	registered [][2]string
	toggled    [][3]string
	prefs      settings.Preferences
}

func (s *stubStore) Register(chatID, name string) error {
	s.registered = append(s.registered, [2]string{chatID, name})
	return nil
}

func (s *stubStore) Toggle(chatID, name, category string) error {
	s.toggled = append(s.toggled, [3]string{chatID, name, category})
	s.prefs[category] = !s.prefs[category]
	return nil
}

func (s *stubStore) Preferences(string) (settings.Preferences, error) {
	return s.prefs, nil
}

func newTestListener() (*Listener, *stubStore) {
	store := &stubStore{prefs: settings.AllEnabled()}
	return NewListener(nil, store, zerolog.Nop()), store
}

func TestStartCommandRegistersChat(t *testing.T) {
	l, store := newTestListener()

	reply, err := l.handleCommand("12345", "alice", "start")
	require.NoError(t, err)
	assert.Contains(t, reply, "Subscribed")
	require.Len(t, store.registered, 1)
	assert.Equal(t, [2]string{"12345", "alice"}, store.registered[0])
}

func TestCategoryCommandTogglesAndShowsState(t *testing.T) {
	l, store := newTestListener()

	reply, err := l.handleCommand("12345", "alice", model.CategorySpotter)
	require.NoError(t, err)
	require.Len(t, store.toggled, 1)
	assert.Equal(t, [3]string{"12345", "alice", "spotter"}, store.toggled[0])
	assert.Contains(t, reply, "/spotter: off")
	assert.Contains(t, reply, "/damage: on")
}

func TestAlertsCommandShowsPreferences(t *testing.T) {
	l, store := newTestListener()
	store.prefs[model.CategoryStrategy] = false

	reply, err := l.handleCommand("12345", "alice", "alerts")
	require.NoError(t, err)
	for _, category := range model.Categories() {
		assert.Contains(t, reply, "/"+category)
	}
	assert.Contains(t, reply, "/strategy: off")
	assert.Empty(t, store.toggled)
}

func TestUpdateWithoutMessageIgnored(t *testing.T) {
	l, store := newTestListener()

	assert.NotPanics(t, func() { l.handleUpdate(tgbotapi.Update{}) })
	assert.Empty(t, store.registered)
}

func TestUnknownCommandIsSilent(t *testing.T) {
	l, store := newTestListener()

	reply, err := l.handleCommand("12345", "alice", "weather")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Empty(t, store.registered)
	assert.Empty(t, store.toggled)
}
