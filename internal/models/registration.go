package models

import "time"

// Registration represents a confirmed or pending spot in a meeting
type Registration struct {
	ID        string `json:"id" gorm:"primaryKey"`
	MeetingID string `json:"meeting_id" gorm:"index"`
	UserID    string `json:"user_id" gorm:"index"`

	// Payment
	PaymentMethod string `json:"payment_method"` // "card", "transfer"
	DepositorName string `json:"depositor_name"` // bank transfer sender name
	Amount        int    `json:"amount"`

	Status string `json:"status" gorm:"index"` // "pending_transfer", "confirmed", "cancelled"

	// Timestamps
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistrationStatus constants
const (
	RegistrationStatusPendingTransfer = "pending_transfer"
	RegistrationStatusConfirmed       = "confirmed"
	RegistrationStatusCancelled       = "cancelled"

	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)
