package models

import "time"

// NotificationLog records every outbound SMS for the admin log view
type NotificationLog struct {
	ID           string `json:"id" gorm:"primaryKey"`
	UserID       string `json:"user_id" gorm:"index"`
	MeetingID    string `json:"meeting_id" gorm:"index"`
	Phone        string `json:"phone"`
	TemplateCode string `json:"template_code"`
	Status       string `json:"status"` // "sent", "failed"
	Error        string `json:"error"`

	CreatedAt time.Time `json:"created_at"`
}

// NotificationStatus constants
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// Notification template codes
const (
	TemplateWaitlistSpot      = "waitlist_spot"
	TemplateWaitlistExpired   = "waitlist_expired"
	TemplateRegistrationDone  = "registration_confirmed"
	TemplateTransferConfirmed = "transfer_confirmed"
	TemplateReminderD3        = "reminder_d3"
	TemplateReminderD1        = "reminder_d1"
	TemplateReminderToday     = "reminder_today"
)
