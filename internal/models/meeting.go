package models

import "time"

// Meeting represents a capacity-limited book club meeting
type Meeting struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Title       string `json:"title"`
	Description string `json:"description"`
	BookTitle   string `json:"book_title"`
	Location    string `json:"location"`

	Datetime            time.Time `json:"datetime" gorm:"index"`
	Capacity            int       `json:"capacity"`
	CurrentParticipants int       `json:"current_participants" gorm:"default:0"`
	Fee                 int       `json:"fee"` // participation fee in KRW

	Status string `json:"status" gorm:"index;default:open"` // "open", "closed", "completed", "cancelled"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeetingStatus constants
const (
	MeetingStatusOpen      = "open"
	MeetingStatusClosed    = "closed"
	MeetingStatusCompleted = "completed"
	MeetingStatusCancelled = "cancelled"
)

// IsFull reports whether the meeting has no seats left
func (m *Meeting) IsFull() bool {
	return m.CurrentParticipants >= m.Capacity
}

// HasStarted reports whether the meeting datetime has passed
func (m *Meeting) HasStarted(now time.Time) bool {
	return m.Datetime.Before(now)
}
