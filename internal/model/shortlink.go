package model

import "time"

// ShortLink represents a short code and the destination it resolves to.
// Records are created once and never updated.
type ShortLink struct {
	ShortCode      string     `json:"short_code"`
	Destination    string     `json:"destination"`
	PasswordHash   *string    `json:"password_hash,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsProtected reports whether resolving the link requires a password.
func (l *ShortLink) IsProtected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// IsExpiredAt reports whether the link expiration date is strictly before now.
func (l *ShortLink) IsExpiredAt(now time.Time) bool {
	return l.ExpirationDate != nil && l.ExpirationDate.Before(now)
}

// ShortenRequest represents the request body for creating a short code
type ShortenRequest struct {
	Destination     string  `json:"destination"`
	CustomShortCode string  `json:"customShortCode,omitempty"`
	Password        string  `json:"password,omitempty"`
	ExpirationDate  *string `json:"expirationDate,omitempty"`
}

// ShortenResponse represents the response for a created short code
type ShortenResponse struct {
	ShortCode      string `json:"shortCode"`
	ShortURL       string `json:"shortUrl"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

// ResolveRequest carries a short code lookup. A nil Password means none was supplied.
type ResolveRequest struct {
	ShortCode string
	Password  *string
}

// DestinationResponse represents the response for a resolved short code
type DestinationResponse struct {
	Destination string `json:"destination"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}
