package storage

import (
	"errors"
	"time"

	"github.com/jidokhae/jidokhae-backend/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
// Both store implementations map their own miss conditions to this.
var ErrNotFound = errors.New("record not found")

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id string) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	UpdateUser(user *models.User) error

	// Meeting operations
	CreateMeeting(meeting *models.Meeting) (*models.Meeting, error)
	GetMeeting(id string) (*models.Meeting, error)
	GetOpenMeetings() ([]*models.Meeting, error)
	UpdateMeeting(meeting *models.Meeting) error
	GetMeetingsBetween(start, end time.Time) ([]*models.Meeting, error)
	GetOverdueOpenMeetings(now time.Time) ([]*models.Meeting, error)

	// Registration operations
	CreateRegistration(reg *models.Registration) (*models.Registration, error)
	GetRegistration(id string) (*models.Registration, error)
	GetActiveRegistration(userID, meetingID string) (*models.Registration, error)
	GetConfirmedRegistrations(meetingID string) ([]*models.Registration, error)
	GetPendingTransfers() ([]*models.Registration, error)
	UpdateRegistration(reg *models.Registration) error

	// Waitlist operations
	CreateWaitlistEntry(entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	GetWaitlistEntry(id string) (*models.WaitlistEntry, error)
	GetWaitingEntry(userID, meetingID string) (*models.WaitlistEntry, error)
	GetActiveWaitlistEntry(userID, meetingID string) (*models.WaitlistEntry, error)
	GetWaitingEntries(meetingID string) ([]*models.WaitlistEntry, error)
	GetFirstWaiting(meetingID string) (*models.WaitlistEntry, error)
	CountWaiting(meetingID string) (int64, error)
	UpdateWaitlistEntry(entry *models.WaitlistEntry) error
	GetOverdueNotified(now time.Time) ([]*models.WaitlistEntry, error)
	// RemoveWaitingEntry deletes a waiting entry and closes the position
	// gap behind it in one store-level unit of work.
	RemoveWaitingEntry(entry *models.WaitlistEntry) error
	// ConvertWaitlistEntry marks an entry converted and closes the gap likewise.
	ConvertWaitlistEntry(entry *models.WaitlistEntry) error

	// OTP operations
	UpsertOTP(otp *models.PhoneOTP) error
	GetOTP(phone string) (*models.PhoneOTP, error)
	UpdateOTP(otp *models.PhoneOTP) error
	DeleteOTP(phone string) error

	// Notification log operations
	CreateNotificationLog(entry *models.NotificationLog) error
	GetNotificationLogs(limit int) ([]*models.NotificationLog, error)
}
