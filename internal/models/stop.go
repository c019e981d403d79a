package models

// Stop represents a named location a route can depart from, arrive at or pass through
type Stop struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	City string `json:"city" db:"city"`
}

// Equal reports whether two stops have the same identity
func (s Stop) Equal(other Stop) bool {
	return s.ID == other.ID
}
