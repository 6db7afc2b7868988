// Package db implements the credential store: a small key-value table backed
// by SQLite that persists the summarization API key and the cached OAuth
// access token between runs.
package db

import (
	"errors"
	"log"

	"github.com/figsum/figsum/internal/db/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Well-known configuration keys.
const (
	KeyAnthropicAPIKey  = "anthropic_api_key"
	KeyFigmaAccessToken = "figma_access_token"
)

// Store wraps the database handle with the credential operations the
// pipeline needs. All operations are single-row get/set/delete.
type Store struct {
	db *gorm.DB
}

// Open initializes the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&models.Config{}); err != nil {
		return nil, err
	}
	log.Printf("[Store] Opened credential store at %s", path)
	return &Store{db: gdb}, nil
}

// Get returns the value for key, or empty string when the key is not set.
func (s *Store) Get(key string) (string, error) {
	var row models.Config
	err := s.db.Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

// Set writes the value for key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	return s.db.Save(&models.Config{Key: key, Value: value}).Error
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&models.Config{}).Error
}

// APIKey returns the stored summarization provider key.
func (s *Store) APIKey() (string, error) {
	return s.Get(KeyAnthropicAPIKey)
}

// SetAPIKey overwrites the summarization provider key.
func (s *Store) SetAPIKey(key string) error {
	return s.Set(KeyAnthropicAPIKey, key)
}

// AccessToken returns the cached OAuth access token, if any.
func (s *Store) AccessToken() (string, error) {
	return s.Get(KeyFigmaAccessToken)
}

// SetAccessToken caches the OAuth access token.
func (s *Store) SetAccessToken(token string) error {
	return s.Set(KeyFigmaAccessToken, token)
}

// DeleteAccessToken drops the cached token, forcing the next flow to
// re-authorize.
func (s *Store) DeleteAccessToken() error {
	return s.Delete(KeyFigmaAccessToken)
}
