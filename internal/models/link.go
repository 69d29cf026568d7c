package models

import "time"

// ShortLink represents a shortened URL row in the Urls table.
type ShortLink struct {
	// RowID is the Grist row identifier, needed for PATCH updates.
	RowID int64
	// ShortID is the public short code associated with the long URL.
	ShortID string
	// LongURL is the normalized destination URL the short code points to.
	LongURL string
	// Clicks tracks the number of times the short link has been visited.
	Clicks int64
	// CreatedAt is the timestamp indicating when the short link was created.
	CreatedAt time.Time
	// CreatedBy references the Users.userId of the creator, zero when unknown.
	CreatedBy int64
}
