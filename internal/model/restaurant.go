package model

import "time"

type Restaurant struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	City          string     `json:"city"`
	Website       string     `json:"website"`
	URLVerifiedAt *time.Time `json:"url_verified_at"`

	// Categories is populated only by queries that join memberships.
	Categories []Category `json:"categories,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
