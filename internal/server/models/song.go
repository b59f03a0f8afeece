// Package models defines the server-side persistence types.
package models

// Song is one record in the server collection. JSON tags follow the wire
// format the clients expect, including the Mongo-style "_id" key.
type Song struct {
	ID          string   `json:"_id"`
	Text        string   `json:"text"`
	Length      int      `json:"length"`
	Date        string   `json:"date"`
	Liked       bool     `json:"liked"`
	WebViewPath string   `json:"webViewPath,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}
