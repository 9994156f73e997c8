package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code used to look up the original URL.
	// It is either system-generated or equal to CustomAlias.
	ShortCode string
	// CustomAlias is the user-chosen alias, empty for generated codes.
	// When present it always equals ShortCode.
	CustomAlias string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// OwnerID references an external user identity, empty for anonymous submissions.
	OwnerID string
	// ClickCount tracks the number of times the shortened URL has been visited.
	ClickCount int64
	// LastAccessed is the timestamp of the most recent redirect, zero until the first visit.
	LastAccessed time.Time
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
}
