package model

import "time"

// Field limits carried over from the original schema.
const (
	MaxListingTitleLength   = 20
	MaxListingDetailsLength = 150
)

type Listing struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Price        int            `json:"price"`
	Details      string         `json:"details"`
	Address      string         `json:"address"`
	HostID       string         `json:"host_id"`
	HostUsername *string        `json:"host_username,omitempty"` // For display
	Photos       []ListingPhoto `json:"photos,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ListingPhoto struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
}
