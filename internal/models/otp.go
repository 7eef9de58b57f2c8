package models

import "time"

// PhoneOTP is a short-lived verification code for one phone number.
// At most one live record exists per phone; issuing again overwrites it.
type PhoneOTP struct {
	Phone     string    `json:"phone" gorm:"primaryKey"` // digits only
	Code      string    `json:"-" gorm:"not null"`       // never serialized or logged
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}
