package model

import "time"

// Click is an append-only analytics record of a redirect to a
// restaurant's website.
type Click struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Timestamp    time.Time `json:"timestamp"`
}
