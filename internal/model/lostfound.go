package model

import "time"

// Report kinds.  Lost and found reports share a shape but live in separate
// tables.
const (
	KindLost  = "lost"
	KindFound = "found"
)

// Report statuses.  Only open reports take part in matching.
const (
	StatusOpen     = "open"
	StatusClaimed  = "claimed"
	StatusResolved = "resolved"
)

// ValidReportStatus reports whether s is a known status.
func ValidReportStatus(s string) bool {
	return s == StatusOpen || s == StatusClaimed || s == StatusResolved
}

// ItemReport is a lost or found item.
type ItemReport struct {
	ID            uint64    `json:"id"`
	Kind          string    `json:"kind"`
	UserID        uint64    `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Date          time.Time `json:"date"`
	ImageURL      string    `json:"image_url,omitempty"`
	ReporterName  string    `json:"reporter_name"`
	ReporterPhone string    `json:"reporter_phone,omitempty"`
	ReporterEmail string    `json:"reporter_email,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
