package domain

import "time"

// Hit represents a single traversal of a short link
type Hit struct {
	ID        int64   `json:"id"`
	Parent    int64   `json:"parent"`
	Time      int64   `json:"time"`       // unix seconds
	UserAgent *string `json:"user_agent"` // nil when the client sent none
}

// When returns the hit time as a time.Time in the local zone.
func (h Hit) When() time.Time {
	return time.Unix(h.Time, 0)
}
