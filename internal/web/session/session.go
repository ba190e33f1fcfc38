// Package session keeps the login sessions of the web service in a key value storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Storage is the part of a gofiber storage driver the session store uses.
// Drivers return a nil value without error for missing keys.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// Data represents the session data structure.
type Data struct {
	UserID    uint64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store reads and writes session data.
type Store struct {
	storage Storage
	expiry  time.Duration
}

// New creates a session store on top of storage. Sessions expire after expiry.
func New(storage Storage, expiry time.Duration) *Store {
	if storage == nil {
		panic("storage is nil")
	}

	return &Store{storage: storage, expiry: expiry}
}

// Expiry returns the lifetime of a session.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Write writes the session data for the given session ID.
func (s *Store) Write(sessionID string, data *Data) error {
	out, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.storage.Set(sessionID, out, s.expiry)
}

// Read reads the session data for the given session ID.
func (s *Store) Read(sessionID string) (*Data, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}

	raw, err := s.storage.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	data := new(Data)
	if err = json.Unmarshal(raw, data); err != nil {
		return nil, err
	}

	return data, nil
}

// Delete removes a session.
func (s *Store) Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return s.storage.Delete(sessionID)
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
