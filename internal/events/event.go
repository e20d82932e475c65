package events

import "time"

// RoutingKeyCreated is the routing key of ShortCodeCreated messages.
const RoutingKeyCreated = "shortcode.created"

// ShortCodeCreated is published once a short link has been persisted.
// It never carries the password or its hash.
type ShortCodeCreated struct {
	ShortCode      string     `json:"shortCode"`
	Destination    string     `json:"destination"`
	Protected      bool       `json:"protected"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
