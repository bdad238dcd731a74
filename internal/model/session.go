package model

import "time"

// Session is server-side per-browser state referenced by an opaque
// cookie token. RecentlyViewed holds restaurant ids, most-recent-last,
// de-duplicated, capped at the last 10.
type Session struct {
	ID             int64     `json:"id"`
	Token          string    `json:"token"`
	UserID         *int64    `json:"user_id"`
	IsAdmin        bool      `json:"is_admin"`
	RecentlyViewed []int64   `json:"recently_viewed"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}
