package domain

import "time"

// Listing is the slice of a cabin listing needed to build the sitemap.
type Listing struct {
	ID        string
	Title     string
	UpdatedAt time.Time
}
