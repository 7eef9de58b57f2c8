package models

import "time"

// WaitlistEntry represents a user queued for a full meeting.
//
// Waiting entries for one meeting always occupy positions 1..N with no
// gaps; cancellation and conversion renumber the entries behind them.
type WaitlistEntry struct {
	ID        string `json:"id" gorm:"primaryKey"`
	MeetingID string `json:"meeting_id" gorm:"index"`
	UserID    string `json:"user_id" gorm:"index"`

	Position int    `json:"position"`
	Status   string `json:"status" gorm:"index"` // "waiting", "notified", "expired", "cancelled", "converted"

	// Set when the entry is promoted to notified
	NotifiedAt       *time.Time `json:"notified_at"`
	ResponseDeadline *time.Time `json:"response_deadline" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WaitlistStatus constants.
//
// waiting → notified → {expired | converted}; waiting → cancelled.
// An entry never returns to waiting once it leaves that state.
const (
	WaitlistStatusWaiting   = "waiting"
	WaitlistStatusNotified  = "notified"
	WaitlistStatusExpired   = "expired"
	WaitlistStatusCancelled = "cancelled"
	WaitlistStatusConverted = "converted"
)
