package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jidokhae/jidokhae-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local development
type MemoryStore struct {
	users         map[string]*models.User
	meetings      map[string]*models.Meeting
	registrations map[string]*models.Registration
	waitlists     map[string]*models.WaitlistEntry
	otps          map[string]*models.PhoneOTP
	logs          []*models.NotificationLog

	mu sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		meetings:      make(map[string]*models.Meeting),
		registrations: make(map[string]*models.Registration),
		waitlists:     make(map[string]*models.WaitlistEntry),
		otps:          make(map[string]*models.PhoneOTP),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleMember
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

// Meeting operations

func (m *MemoryStore) CreateMeeting(meeting *models.Meeting) (*models.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Status == "" {
		meeting.Status = models.MeetingStatusOpen
	}
	meeting.CreatedAt = time.Now()
	meeting.UpdatedAt = time.Now()
	m.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (m *MemoryStore) GetMeeting(id string) (*models.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meeting, exists := m.meetings[id]
	if !exists {
		return nil, ErrNotFound
	}
	return meeting, nil
}

func (m *MemoryStore) GetOpenMeetings() ([]*models.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var meetings []*models.Meeting
	for _, meeting := range m.meetings {
		if meeting.Status == models.MeetingStatusOpen {
			meetings = append(meetings, meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].Datetime.Before(meetings[j].Datetime)
	})
	return meetings, nil
}

func (m *MemoryStore) UpdateMeeting(meeting *models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.meetings[meeting.ID]; !exists {
		return ErrNotFound
	}
	meeting.UpdatedAt = time.Now()
	m.meetings[meeting.ID] = meeting
	return nil
}

func (m *MemoryStore) GetMeetingsBetween(start, end time.Time) ([]*models.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var meetings []*models.Meeting
	for _, meeting := range m.meetings {
		if meeting.Status != models.MeetingStatusOpen {
			continue
		}
		if !meeting.Datetime.Before(start) && meeting.Datetime.Before(end) {
			meetings = append(meetings, meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].Datetime.Before(meetings[j].Datetime)
	})
	return meetings, nil
}

func (m *MemoryStore) GetOverdueOpenMeetings(now time.Time) ([]*models.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var meetings []*models.Meeting
	for _, meeting := range m.meetings {
		if meeting.Status == models.MeetingStatusOpen && meeting.Datetime.Before(now) {
			meetings = append(meetings, meeting)
		}
	}
	return meetings, nil
}

// Registration operations

func (m *MemoryStore) CreateRegistration(reg *models.Registration) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = time.Now()
	m.registrations[reg.ID] = reg
	return reg, nil
}

func (m *MemoryStore) GetRegistration(id string) (*models.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, exists := m.registrations[id]
	if !exists {
		return nil, ErrNotFound
	}
	return reg, nil
}

func (m *MemoryStore) GetActiveRegistration(userID, meetingID string) (*models.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, reg := range m.registrations {
		if reg.UserID == userID && reg.MeetingID == meetingID &&
			reg.Status != models.RegistrationStatusCancelled {
			return reg, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetConfirmedRegistrations(meetingID string) ([]*models.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var regs []*models.Registration
	for _, reg := range m.registrations {
		if reg.MeetingID == meetingID && reg.Status == models.RegistrationStatusConfirmed {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (m *MemoryStore) GetPendingTransfers() ([]*models.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var regs []*models.Registration
	for _, reg := range m.registrations {
		if reg.Status == models.RegistrationStatusPendingTransfer {
			regs = append(regs, reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return regs, nil
}

func (m *MemoryStore) UpdateRegistration(reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.registrations[reg.ID]; !exists {
		return ErrNotFound
	}
	reg.UpdatedAt = time.Now()
	m.registrations[reg.ID] = reg
	return nil
}

// Waitlist operations

func (m *MemoryStore) CreateWaitlistEntry(entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.WaitlistStatusWaiting
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	m.waitlists[entry.ID] = entry
	return entry, nil
}

func (m *MemoryStore) GetWaitlistEntry(id string) (*models.WaitlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.waitlists[id]
	if !exists {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (m *MemoryStore) GetWaitingEntry(userID, meetingID string) (*models.WaitlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.waitlists {
		if entry.UserID == userID && entry.MeetingID == meetingID &&
			entry.Status == models.WaitlistStatusWaiting {
			return entry, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetActiveWaitlistEntry(userID, meetingID string) (*models.WaitlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.waitlists {
		if entry.UserID == userID && entry.MeetingID == meetingID &&
			(entry.Status == models.WaitlistStatusWaiting || entry.Status == models.WaitlistStatusNotified) {
			return entry, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetWaitingEntries(meetingID string) ([]*models.WaitlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.waitingLocked(meetingID), nil
}

// waitingLocked returns waiting entries for a meeting in ascending position
// order. Callers must hold at least a read lock.
func (m *MemoryStore) waitingLocked(meetingID string) []*models.WaitlistEntry {
	var entries []*models.WaitlistEntry
	for _, entry := range m.waitlists {
		if entry.MeetingID == meetingID && entry.Status == models.WaitlistStatusWaiting {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	return entries
}

func (m *MemoryStore) GetFirstWaiting(meetingID string) (*models.WaitlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.waitingLocked(meetingID)
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries[0], nil
}

func (m *MemoryStore) CountWaiting(meetingID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.waitingLocked(meetingID))), nil
}

func (m *MemoryStore) UpdateWaitlistEntry(entry *models.WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.waitlists[entry.ID]; !exists {
		return ErrNotFound
	}
	entry.UpdatedAt = time.Now()
	m.waitlists[entry.ID] = entry
	return nil
}

func (m *MemoryStore) GetOverdueNotified(now time.Time) ([]*models.WaitlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*models.WaitlistEntry
	for _, entry := range m.waitlists {
		if entry.Status == models.WaitlistStatusNotified &&
			entry.ResponseDeadline != nil && entry.ResponseDeadline.Before(now) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *MemoryStore) RemoveWaitingEntry(entry *models.WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.waitlists[entry.ID]; !exists {
		return ErrNotFound
	}
	delete(m.waitlists, entry.ID)
	m.shiftPositionsLocked(entry.MeetingID, entry.Position)
	return nil
}

func (m *MemoryStore) ConvertWaitlistEntry(entry *models.WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.waitlists[entry.ID]
	if !exists {
		return ErrNotFound
	}
	stored.Status = models.WaitlistStatusConverted
	stored.UpdatedAt = time.Now()
	m.shiftPositionsLocked(entry.MeetingID, entry.Position)
	return nil
}

// shiftPositionsLocked decrements positions behind a removed entry, one at a
// time in ascending order so positions stay unique at every step.
func (m *MemoryStore) shiftPositionsLocked(meetingID string, removedPosition int) {
	for _, e := range m.waitingLocked(meetingID) {
		if e.Position > removedPosition {
			e.Position--
			e.UpdatedAt = time.Now()
		}
	}
}

// OTP operations

func (m *MemoryStore) UpsertOTP(otp *models.PhoneOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	otp.CreatedAt = time.Now()
	m.otps[otp.Phone] = otp
	return nil
}

func (m *MemoryStore) GetOTP(phone string) (*models.PhoneOTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	otp, exists := m.otps[phone]
	if !exists {
		return nil, ErrNotFound
	}
	return otp, nil
}

func (m *MemoryStore) UpdateOTP(otp *models.PhoneOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.otps[otp.Phone]; !exists {
		return ErrNotFound
	}
	m.otps[otp.Phone] = otp
	return nil
}

func (m *MemoryStore) DeleteOTP(phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.otps, phone)
	return nil
}

// Notification log operations

func (m *MemoryStore) CreateNotificationLog(entry *models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now()
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MemoryStore) GetNotificationLogs(limit int) ([]*models.NotificationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := make([]*models.NotificationLog, 0, limit)
	for i := len(m.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		logs = append(logs, m.logs[i])
	}
	return logs, nil
}
