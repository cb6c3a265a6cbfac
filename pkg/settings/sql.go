package settings

import (
	"database/sql"
	"fmt"
)

func buildCreatePreferencesTable() string {
	return `CREATE TABLE IF NOT EXISTS alert_prefs (
		chatid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		opponents INTEGER,
		spotter INTEGER,
		strategy INTEGER,
		damage INTEGER);`
}

func buildSelectChatCommand(chatID string) (string, func(*sql.Rows) (Preferences, error)) {
	fields := "opponents, spotter, strategy, damage"
	return fmt.Sprintf(`SELECT %s FROM alert_prefs WHERE chatid = '%s'`, fields, chatID), processSelectChatRows
}

func processSelectChatRows(rows *sql.Rows) (Preferences, error) {
	defer rows.Close()

	p := AllEnabled()
	// only can be one row
	if rows.Next() {
		var opponents int
		var spotter int
		var strategy int
		var damage int
		err := rows.Scan(&opponents, &spotter, &strategy, &damage)
		if err != nil {
			return p, err
		}
		p[CategoryOpponents] = opponents == 1
		p[CategorySpotter] = spotter == 1
		p[CategoryStrategy] = strategy == 1
		p[CategoryDamage] = damage == 1
	}
	return p, rows.Err()
}

func buildSelectRecipientsCommand(category string) (string, func(*sql.Rows) ([]Recipient, error)) {
	fields := "chatid, name"
	return fmt.Sprintf(`SELECT %s FROM alert_prefs WHERE %s = 1`, fields, category), processSelectRecipientRows
}

func processSelectRecipientRows(rows *sql.Rows) ([]Recipient, error) {
	defer rows.Close()

	recipients := make([]Recipient, 0)
	for rows.Next() {
		var chatid string
		var name string
		err := rows.Scan(&chatid, &name)
		if err != nil {
			return recipients, err
		}
		recipients = append(recipients, Recipient{ChatID: chatid, Name: name})
	}
	return recipients, rows.Err()
}

func buildUpsertChatCommand(chatID, name string, p Preferences) string {
	fields := "chatid, name, opponents, spotter, strategy, damage"
	values := fmt.Sprintf(`'%s', '%s', %d, %d, %d, %d`,
		chatID, name,
		enabledInt(p[CategoryOpponents]),
		enabledInt(p[CategorySpotter]),
		enabledInt(p[CategoryStrategy]),
		enabledInt(p[CategoryDamage]))
	return fmt.Sprintf(`INSERT OR REPLACE INTO alert_prefs (%s) VALUES (%s)`, fields, values)
}

func enabledInt(enabled bool) int {
	if enabled {
		return 1
	}
	return 0
}
