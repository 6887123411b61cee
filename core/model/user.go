package model

import "time"

// User is an account that logs power events. Location is the free-text
// address given at registration; RegionID is the region resolved from it,
// empty when nothing matched.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email,omitempty"`
	Location  string    `json:"location,omitempty"`
	RegionID  string    `json:"region_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
