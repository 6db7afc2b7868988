package models

import "time"

// Config stores one configuration value per row, keyed by name. It is the
// plugin-scoped key-value store that holds the summarization API key and the
// cached access token.
type Config struct {
	Key       string `gorm:"primaryKey"` // Config key name
	Value     string // Config value
	CreatedAt time.Time
	UpdatedAt time.Time
}
