package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jidokhae/jidokhae-backend/internal/models"
)

// DatabaseStore implements Store on PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleMember
	}
	if err := d.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DatabaseStore) GetUser(id string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "phone = ?", phone).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

// Meeting operations

func (d *DatabaseStore) CreateMeeting(meeting *models.Meeting) (*models.Meeting, error) {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Status == "" {
		meeting.Status = models.MeetingStatusOpen
	}
	if err := d.db.Create(meeting).Error; err != nil {
		return nil, err
	}
	return meeting, nil
}

func (d *DatabaseStore) GetMeeting(id string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := d.db.First(&meeting, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &meeting, nil
}

func (d *DatabaseStore) GetOpenMeetings() ([]*models.Meeting, error) {
	var meetings []*models.Meeting
	err := d.db.
		Where("status = ?", models.MeetingStatusOpen).
		Order("datetime ASC").
		Find(&meetings).Error
	return meetings, err
}

func (d *DatabaseStore) UpdateMeeting(meeting *models.Meeting) error {
	return d.db.Save(meeting).Error
}

func (d *DatabaseStore) GetMeetingsBetween(start, end time.Time) ([]*models.Meeting, error) {
	var meetings []*models.Meeting
	err := d.db.
		Where("status = ? AND datetime >= ? AND datetime < ?", models.MeetingStatusOpen, start, end).
		Order("datetime ASC").
		Find(&meetings).Error
	return meetings, err
}

func (d *DatabaseStore) GetOverdueOpenMeetings(now time.Time) ([]*models.Meeting, error) {
	var meetings []*models.Meeting
	err := d.db.
		Where("status = ? AND datetime < ?", models.MeetingStatusOpen, now).
		Find(&meetings).Error
	return meetings, err
}

// Registration operations

func (d *DatabaseStore) CreateRegistration(reg *models.Registration) (*models.Registration, error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if err := d.db.Create(reg).Error; err != nil {
		return nil, err
	}
	return reg, nil
}

func (d *DatabaseStore) GetRegistration(id string) (*models.Registration, error) {
	var reg models.Registration
	if err := d.db.First(&reg, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &reg, nil
}

func (d *DatabaseStore) GetActiveRegistration(userID, meetingID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.db.
		Where("user_id = ? AND meeting_id = ? AND status <> ?",
			userID, meetingID, models.RegistrationStatusCancelled).
		First(&reg).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &reg, nil
}

func (d *DatabaseStore) GetConfirmedRegistrations(meetingID string) ([]*models.Registration, error) {
	var regs []*models.Registration
	err := d.db.
		Where("meeting_id = ? AND status = ?", meetingID, models.RegistrationStatusConfirmed).
		Find(&regs).Error
	return regs, err
}

func (d *DatabaseStore) GetPendingTransfers() ([]*models.Registration, error) {
	var regs []*models.Registration
	err := d.db.
		Where("status = ?", models.RegistrationStatusPendingTransfer).
		Order("created_at ASC").
		Find(&regs).Error
	return regs, err
}

func (d *DatabaseStore) UpdateRegistration(reg *models.Registration) error {
	return d.db.Save(reg).Error
}

// Waitlist operations

func (d *DatabaseStore) CreateWaitlistEntry(entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.WaitlistStatusWaiting
	}
	if err := d.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (d *DatabaseStore) GetWaitlistEntry(id string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := d.db.First(&entry, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &entry, nil
}

func (d *DatabaseStore) GetWaitingEntry(userID, meetingID string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := d.db.
		Where("user_id = ? AND meeting_id = ? AND status = ?",
			userID, meetingID, models.WaitlistStatusWaiting).
		First(&entry).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &entry, nil
}

func (d *DatabaseStore) GetActiveWaitlistEntry(userID, meetingID string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := d.db.
		Where("user_id = ? AND meeting_id = ? AND status IN ?",
			userID, meetingID,
			[]string{models.WaitlistStatusWaiting, models.WaitlistStatusNotified}).
		First(&entry).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &entry, nil
}

func (d *DatabaseStore) GetWaitingEntries(meetingID string) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry
	err := d.db.
		Where("meeting_id = ? AND status = ?", meetingID, models.WaitlistStatusWaiting).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

func (d *DatabaseStore) GetFirstWaiting(meetingID string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := d.db.
		Where("meeting_id = ? AND status = ?", meetingID, models.WaitlistStatusWaiting).
		Order("position ASC").
		First(&entry).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &entry, nil
}

func (d *DatabaseStore) CountWaiting(meetingID string) (int64, error) {
	var count int64
	err := d.db.Model(&models.WaitlistEntry{}).
		Where("meeting_id = ? AND status = ?", meetingID, models.WaitlistStatusWaiting).
		Count(&count).Error
	return count, err
}

func (d *DatabaseStore) UpdateWaitlistEntry(entry *models.WaitlistEntry) error {
	return d.db.Save(entry).Error
}

func (d *DatabaseStore) GetOverdueNotified(now time.Time) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry
	err := d.db.
		Where("status = ? AND response_deadline < ?", models.WaitlistStatusNotified, now).
		Find(&entries).Error
	return entries, err
}

// RemoveWaitingEntry deletes the entry and shifts every waiting entry behind
// it up by one, in a single transaction so a crash cannot leave the queue
// with a permanent gap.
func (d *DatabaseStore) RemoveWaitingEntry(entry *models.WaitlistEntry) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.WaitlistEntry{}, "id = ?", entry.ID).Error; err != nil {
			return err
		}
		return d.shiftPositions(tx, entry.MeetingID, entry.Position)
	})
}

// ConvertWaitlistEntry marks the entry converted and closes the gap behind it
func (d *DatabaseStore) ConvertWaitlistEntry(entry *models.WaitlistEntry) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.WaitlistEntry{}).
			Where("id = ?", entry.ID).
			Update("status", models.WaitlistStatusConverted).Error
		if err != nil {
			return err
		}
		return d.shiftPositions(tx, entry.MeetingID, entry.Position)
	})
}

func (d *DatabaseStore) shiftPositions(tx *gorm.DB, meetingID string, removedPosition int) error {
	return tx.Model(&models.WaitlistEntry{}).
		Where("meeting_id = ? AND status = ? AND position > ?",
			meetingID, models.WaitlistStatusWaiting, removedPosition).
		Update("position", gorm.Expr("position - 1")).Error
}

// OTP operations

func (d *DatabaseStore) UpsertOTP(otp *models.PhoneOTP) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.PhoneOTP{}, "phone = ?", otp.Phone).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

func (d *DatabaseStore) GetOTP(phone string) (*models.PhoneOTP, error) {
	var otp models.PhoneOTP
	if err := d.db.First(&otp, "phone = ?", phone).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &otp, nil
}

func (d *DatabaseStore) UpdateOTP(otp *models.PhoneOTP) error {
	return d.db.Save(otp).Error
}

func (d *DatabaseStore) DeleteOTP(phone string) error {
	return d.db.Delete(&models.PhoneOTP{}, "phone = ?", phone).Error
}

// Notification log operations

func (d *DatabaseStore) CreateNotificationLog(entry *models.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return d.db.Create(entry).Error
}

func (d *DatabaseStore) GetNotificationLogs(limit int) ([]*models.NotificationLog, error) {
	var logs []*models.NotificationLog
	err := d.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
