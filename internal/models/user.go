package models

import (
	"encoding/json"
	"math"
	"time"
)

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserIDFromNumber reads a user id from a JSON number. Any integral value is
// accepted, so 7 and 7.0 name the same user.
func UserIDFromNumber(n json.Number) (int64, bool) {
	if id, err := n.Int64(); err == nil {
		return id, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}
