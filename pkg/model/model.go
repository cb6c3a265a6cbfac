package model

import (
	"fmt"
	"time"
)

// Alert categories, used as pubsub routing keys and as preference columns in
// the settings store.
const (
	CategoryOpponents = "opponents"
	CategorySpotter   = "spotter"
	CategoryStrategy  = "strategy"
	CategoryDamage    = "damage"
)

// Categories lists every alert category in display order.
func Categories() []string {
	return []string{CategoryOpponents, CategorySpotter, CategoryStrategy, CategoryDamage}
}

// Alert is one spoken-style message produced by an analysis pass, fanned out
// to local sinks independently of remote connectivity.
type Alert struct {
	Category string    `json:"category"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s", a.Category, a.Text)
}
