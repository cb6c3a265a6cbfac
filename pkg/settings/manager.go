package settings

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"pitwallrelay/pkg/model"
)

// Alert categories mirrored as columns of the preferences table.
const (
	CategoryOpponents = model.CategoryOpponents
	CategorySpotter   = model.CategorySpotter
	CategoryStrategy  = model.CategoryStrategy
	CategoryDamage    = model.CategoryDamage
)

// Recipient is a chat that has at least one alert category enabled.
type Recipient struct {
	ChatID string
	Name   string
}

// Preferences maps alert category to enabled flag.
type Preferences map[string]bool

func AllEnabled() Preferences {
	return Preferences{
		CategoryOpponents: true,
		CategorySpotter:   true,
		CategoryStrategy:  true,
		CategoryDamage:    true,
	}
}

func AllDisabled() Preferences {
	return Preferences{
		CategoryOpponents: false,
		CategorySpotter:   false,
		CategoryStrategy:  false,
		CategoryDamage:    false,
	}
}

// Manager persists per-chat alert preferences in SQLite.
type Manager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewManager(path string) (*Manager, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening settings database")
	}
	if _, err := db.Exec(buildCreatePreferencesTable()); err != nil {
		return nil, errors.Wrap(err, "initializing settings database")
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Close()
}

// Toggle flips one category for a chat, creating the row with everything
// enabled first if the chat is new.
func (m *Manager) Toggle(chatID, name, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.preferences(chatID)
	if err != nil {
		return err
	}
	p[category] = !p[category]
	if _, err := m.db.Exec(buildUpsertChatCommand(chatID, name, p)); err != nil {
		return errors.Wrap(err, "updating preferences")
	}
	return nil
}

// Register stores a chat with every category enabled, leaving existing
// preferences alone.
func (m *Manager) Register(chatID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, read := buildSelectChatCommand(chatID)
	rows, err := m.db.Query(query)
	if err != nil {
		return errors.Wrap(err, "reading preferences")
	}
	p, err := read(rows)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(buildUpsertChatCommand(chatID, name, p))
	return errors.Wrap(err, "registering chat")
}

// Preferences returns the stored flags for a chat; unknown chats default to
// everything enabled.
func (m *Manager) Preferences(chatID string) (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preferences(chatID)
}

// RecipientsFor lists the chats that want alerts of the given category.
func (m *Manager) RecipientsFor(category string) ([]Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, read := buildSelectRecipientsCommand(category)
	rows, err := m.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "listing recipients")
	}
	return read(rows)
}

func (m *Manager) preferences(chatID string) (Preferences, error) {
	query, read := buildSelectChatCommand(chatID)
	rows, err := m.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "reading preferences")
	}
	return read(rows)
}
