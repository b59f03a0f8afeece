// Package models defines the record types the client synchronizes.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrParse reports malformed stored JSON.
var ErrParse = errors.New("malformed record")

// LocalIDPrefix marks ids assigned on this device while offline.
// The server never issues ids of this form.
const LocalIDPrefix = "_"

// Song is the unit of synchronization. JSON field names follow the wire
// format of the record API.
type Song struct {
	ID          string   `json:"_id,omitempty"`
	Text        string   `json:"text"`
	Length      int      `json:"length"`
	Date        string   `json:"date"`
	Liked       bool     `json:"liked"`
	WebViewPath string   `json:"webViewPath,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Equal reports content equality over id, text, length, date and liked.
// The media reference and coordinates are not part of the comparison;
// reconciliation skips an update when this narrower set matches.
func (s Song) Equal(other Song) bool {
	return s.ID == other.ID &&
		s.Text == other.Text &&
		s.Length == other.Length &&
		s.Date == other.Date &&
		s.Liked == other.Liked
}

// HasLocalID reports whether the id was assigned locally while offline
// and has not yet been replaced by a server-issued one.
func (s Song) HasLocalID() bool {
	return strings.HasPrefix(s.ID, LocalIDPrefix)
}

// NewLocalID returns a fresh placeholder id for a record created offline.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// EncodeSong serializes a song for local storage.
func EncodeSong(s Song) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode song: %w", err)
	}
	return data, nil
}

// ParseSong deserializes a locally stored song. Malformed input wraps ErrParse.
func ParseSong(data []byte) (Song, error) {
	var s Song
	if err := json.Unmarshal(data, &s); err != nil {
		return Song{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return s, nil
}
