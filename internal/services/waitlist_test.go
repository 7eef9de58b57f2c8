package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// --- Mock notifier ---

type sentNotification struct {
	TemplateCode string
	Phone        string
	UserID       string
	MeetingID    string
}

type mockNotifier struct {
	sends         []sentNotification
	failTemplates map[string]bool
}

func (m *mockNotifier) Send(templateCode, phone string, vars map[string]string, userID, meetingID string) error {
	if m.failTemplates[templateCode] {
		return assert.AnError
	}
	m.sends = append(m.sends, sentNotification{
		TemplateCode: templateCode,
		Phone:        phone,
		UserID:       userID,
		MeetingID:    meetingID,
	})
	return nil
}

func (m *mockNotifier) sentOf(templateCode string) []sentNotification {
	var out []sentNotification
	for _, s := range m.sends {
		if s.TemplateCode == templateCode {
			out = append(out, s)
		}
	}
	return out
}

// --- Fixtures ---

var testPhoneSeq int

func testUser(t *testing.T, store storage.Store, name string) *models.User {
	t.Helper()
	testPhoneSeq++
	user, err := store.CreateUser(&models.User{
		Name:          name,
		Phone:         fmt.Sprintf("0109999%04d", testPhoneSeq),
		PhoneVerified: true,
	})
	assert.NoError(t, err)
	return user
}

// fullMeeting creates an open meeting a week out with every seat taken
func fullMeeting(t *testing.T, store storage.Store, capacity int) *models.Meeting {
	t.Helper()
	meeting, err := store.CreateMeeting(&models.Meeting{
		Title:               "한강 독서 모임",
		Location:            "서울숲 카페",
		Datetime:            time.Now().Add(7 * 24 * time.Hour),
		Capacity:            capacity,
		CurrentParticipants: capacity,
		Status:              models.MeetingStatusOpen,
	})
	assert.NoError(t, err)
	return meeting
}

func addWaiting(t *testing.T, store storage.Store, meetingID, userID string, position int) *models.WaitlistEntry {
	t.Helper()
	entry, err := store.CreateWaitlistEntry(&models.WaitlistEntry{
		MeetingID: meetingID,
		UserID:    userID,
		Position:  position,
		Status:    models.WaitlistStatusWaiting,
	})
	assert.NoError(t, err)
	return entry
}

func waitingPositions(t *testing.T, store storage.Store, meetingID string) []int {
	t.Helper()
	entries, err := store.GetWaitingEntries(meetingID)
	assert.NoError(t, err)
	positions := make([]int, len(entries))
	for i, e := range entries {
		positions[i] = e.Position
	}
	return positions
}

// --- Join ---

func TestJoin_AssignsNextPosition(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)
	first := testUser(t, store, "민지")
	second := testUser(t, store, "하늘")

	result, err := svc.Join(meeting.ID, first.ID)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Position)

	result, err = svc.Join(meeting.ID, second.ID)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Position)
}

func TestJoin_RejectsWhenSeatsAvailable(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting, err := store.CreateMeeting(&models.Meeting{
		Title:               "여유로운 모임",
		Datetime:            time.Now().Add(48 * time.Hour),
		Capacity:            10,
		CurrentParticipants: 3,
		Status:              models.MeetingStatusOpen,
	})
	assert.NoError(t, err)
	user := testUser(t, store, "민지")

	result, err := svc.Join(meeting.ID, user.ID)
	assert.NoError(t, err)
	assert.False(t, result.Success)

	count, _ := store.CountWaiting(meeting.ID)
	assert.Zero(t, count)
}

func TestJoin_RejectsPastMeeting(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting, err := store.CreateMeeting(&models.Meeting{
		Title:               "지난 모임",
		Datetime:            time.Now().Add(-time.Hour),
		Capacity:            2,
		CurrentParticipants: 2,
		Status:              models.MeetingStatusOpen,
	})
	assert.NoError(t, err)
	user := testUser(t, store, "민지")

	result, err := svc.Join(meeting.ID, user.ID)
	assert.NoError(t, err)
	assert.False(t, result.Success)
}

func TestJoin_RejectsDuplicateWaiting(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)
	user := testUser(t, store, "민지")

	_, err := svc.Join(meeting.ID, user.ID)
	assert.NoError(t, err)

	result, err := svc.Join(meeting.ID, user.ID)
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Position)

	count, _ := store.CountWaiting(meeting.ID)
	assert.EqualValues(t, 1, count)
}

func TestJoin_RejectsExistingRegistration(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)
	user := testUser(t, store, "민지")

	_, err := store.CreateRegistration(&models.Registration{
		MeetingID: meeting.ID,
		UserID:    user.ID,
		Status:    models.RegistrationStatusConfirmed,
	})
	assert.NoError(t, err)

	result, err := svc.Join(meeting.ID, user.ID)
	assert.NoError(t, err)
	assert.False(t, result.Success)
}

func TestJoin_MeetingNotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	user := testUser(t, store, "민지")

	_, err := svc.Join("missing-meeting", user.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// --- Cancel ---

func TestCancel_RenumbersContiguously(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)

	users := make([]*models.User, 5)
	entries := make([]*models.WaitlistEntry, 5)
	for i := range users {
		users[i] = testUser(t, store, fmt.Sprintf("회원%d", i+1))
		entries[i] = addWaiting(t, store, meeting.ID, users[i].ID, i+1)
	}

	// Cancel the middle of the queue.
	result, err := svc.Cancel(entries[2].ID, users[2].ID)
	assert.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []int{1, 2, 3, 4}, waitingPositions(t, store, meeting.ID))

	// Relative order among the untouched entries is preserved.
	remaining, _ := store.GetWaitingEntries(meeting.ID)
	assert.Equal(t, users[0].ID, remaining[0].UserID)
	assert.Equal(t, users[1].ID, remaining[1].UserID)
	assert.Equal(t, users[3].ID, remaining[2].UserID)
	assert.Equal(t, users[4].ID, remaining[3].UserID)
}

func TestCancel_NotOwner(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewWaitlistService(store, notifier, nil)
	meeting := fullMeeting(t, store, 2)
	owner := testUser(t, store, "민지")
	intruder := testUser(t, store, "하늘")
	entry := addWaiting(t, store, meeting.ID, owner.ID, 1)

	_, err := svc.Cancel(entry.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	// Nothing mutated, nothing sent.
	stored, err := store.GetWaitlistEntry(entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.WaitlistStatusWaiting, stored.Status)
	assert.Equal(t, 1, stored.Position)
	assert.Empty(t, notifier.sends)
}

func TestCancel_NotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	user := testUser(t, store, "민지")

	_, err := svc.Cancel("missing-entry", user.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCancel_NonWaitingState(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)
	notifiedUser := testUser(t, store, "민지")
	waitingUser := testUser(t, store, "하늘")

	entry := addWaiting(t, store, meeting.ID, notifiedUser.ID, 1)
	entry.Status = models.WaitlistStatusNotified
	assert.NoError(t, store.UpdateWaitlistEntry(entry))
	addWaiting(t, store, meeting.ID, waitingUser.ID, 2)

	result, err := svc.Cancel(entry.ID, notifiedUser.ID)
	assert.NoError(t, err)
	assert.False(t, result.Success)

	// The notified entry survives and no positions moved.
	stored, err := store.GetWaitlistEntry(entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.WaitlistStatusNotified, stored.Status)
	assert.Equal(t, []int{2}, waitingPositions(t, store, meeting.ID))
}

// --- AdvanceOnVacancy ---

func TestCancelThenAdvance_Scenario(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewWaitlistService(store, notifier, nil)
	meeting := fullMeeting(t, store, 2)
	userA := testUser(t, store, "가람")
	userB := testUser(t, store, "나래")
	userC := testUser(t, store, "다온")

	entryA := addWaiting(t, store, meeting.ID, userA.ID, 1)
	entryB := addWaiting(t, store, meeting.ID, userB.ID, 2)
	entryC := addWaiting(t, store, meeting.ID, userC.ID, 3)

	// Cancel B: A stays at 1, C moves to 2.
	result, err := svc.Cancel(entryB.ID, userB.ID)
	assert.NoError(t, err)
	assert.True(t, result.Success)

	storedA, _ := store.GetWaitlistEntry(entryA.ID)
	storedC, _ := store.GetWaitlistEntry(entryC.ID)
	assert.Equal(t, 1, storedA.Position)
	assert.Equal(t, 2, storedC.Position)

	// A seat opens: A is notified with a deadline, C keeps waiting at 2.
	notified, err := svc.AdvanceOnVacancy(meeting.ID)
	assert.NoError(t, err)
	assert.True(t, notified)

	storedA, _ = store.GetWaitlistEntry(entryA.ID)
	assert.Equal(t, models.WaitlistStatusNotified, storedA.Status)
	assert.NotNil(t, storedA.ResponseDeadline)
	assert.NotNil(t, storedA.NotifiedAt)

	storedC, _ = store.GetWaitlistEntry(entryC.ID)
	assert.Equal(t, models.WaitlistStatusWaiting, storedC.Status)
	assert.Equal(t, 2, storedC.Position)

	spots := notifier.sentOf(models.TemplateWaitlistSpot)
	assert.Len(t, spots, 1)
	assert.Equal(t, userA.ID, spots[0].UserID)
}

func TestAdvance_EmptyQueueIsNoop(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewWaitlistService(store, notifier, nil)
	meeting := fullMeeting(t, store, 2)

	notified, err := svc.AdvanceOnVacancy(meeting.ID)
	assert.NoError(t, err)
	assert.False(t, notified)
	assert.Empty(t, notifier.sends)
}

func TestAdvance_NotificationFailureLeavesEntryWaiting(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{failTemplates: map[string]bool{models.TemplateWaitlistSpot: true}}
	svc := NewWaitlistService(store, notifier, nil)
	meeting := fullMeeting(t, store, 2)
	user := testUser(t, store, "민지")
	entry := addWaiting(t, store, meeting.ID, user.ID, 1)

	notified, err := svc.AdvanceOnVacancy(meeting.ID)
	assert.Error(t, err)
	assert.False(t, notified)

	stored, _ := store.GetWaitlistEntry(entry.ID)
	assert.Equal(t, models.WaitlistStatusWaiting, stored.Status)
}

// --- ExpireOverdue ---

func TestExpireOverdue_CascadesToNextWaiting(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewWaitlistService(store, notifier, nil)

	meeting := fullMeeting(t, store, 2)
	// A seat is open: the previous vacancy is what got A notified.
	meeting.CurrentParticipants = 1
	assert.NoError(t, store.UpdateMeeting(meeting))

	userA := testUser(t, store, "가람")
	userC := testUser(t, store, "다온")

	entryA := addWaiting(t, store, meeting.ID, userA.ID, 1)
	pastDeadline := time.Now().Add(-time.Hour)
	notifiedAt := time.Now().Add(-7 * time.Hour)
	entryA.Status = models.WaitlistStatusNotified
	entryA.NotifiedAt = &notifiedAt
	entryA.ResponseDeadline = &pastDeadline
	assert.NoError(t, store.UpdateWaitlistEntry(entryA))

	entryC := addWaiting(t, store, meeting.ID, userC.ID, 2)

	stats, err := svc.ExpireOverdue()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Notified)
	assert.Equal(t, 0, stats.Errors)

	storedA, _ := store.GetWaitlistEntry(entryA.ID)
	assert.Equal(t, models.WaitlistStatusExpired, storedA.Status)

	storedC, _ := store.GetWaitlistEntry(entryC.ID)
	assert.Equal(t, models.WaitlistStatusNotified, storedC.Status)
	assert.NotNil(t, storedC.ResponseDeadline)
	assert.True(t, storedC.ResponseDeadline.After(time.Now()), "fresh deadline lies ahead")

	assert.Len(t, notifier.sentOf(models.TemplateWaitlistExpired), 1)
	spots := notifier.sentOf(models.TemplateWaitlistSpot)
	assert.Len(t, spots, 1)
	assert.Equal(t, userC.ID, spots[0].UserID)
}

func TestExpireOverdue_QueueExhausted(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewWaitlistService(store, notifier, nil)

	meeting := fullMeeting(t, store, 2)
	meeting.CurrentParticipants = 1
	assert.NoError(t, store.UpdateMeeting(meeting))

	user := testUser(t, store, "민지")
	entry := addWaiting(t, store, meeting.ID, user.ID, 1)
	pastDeadline := time.Now().Add(-time.Minute)
	entry.Status = models.WaitlistStatusNotified
	entry.ResponseDeadline = &pastDeadline
	assert.NoError(t, store.UpdateWaitlistEntry(entry))

	stats, err := svc.ExpireOverdue()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Notified)
}

func TestExpireOverdue_NoSeatMeansNoCascade(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewWaitlistService(store, notifier, nil)

	meeting := fullMeeting(t, store, 2) // every seat still taken

	userA := testUser(t, store, "가람")
	userC := testUser(t, store, "다온")

	entryA := addWaiting(t, store, meeting.ID, userA.ID, 1)
	pastDeadline := time.Now().Add(-time.Minute)
	entryA.Status = models.WaitlistStatusNotified
	entryA.ResponseDeadline = &pastDeadline
	assert.NoError(t, store.UpdateWaitlistEntry(entryA))

	entryC := addWaiting(t, store, meeting.ID, userC.ID, 2)

	stats, err := svc.ExpireOverdue()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Notified)

	storedC, _ := store.GetWaitlistEntry(entryC.ID)
	assert.Equal(t, models.WaitlistStatusWaiting, storedC.Status)
}

// --- Convert / response window ---

func TestConvert_RenumbersBehind(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)
	userA := testUser(t, store, "가람")
	userB := testUser(t, store, "나래")

	entryA := addWaiting(t, store, meeting.ID, userA.ID, 1)
	entryA.Status = models.WaitlistStatusNotified
	assert.NoError(t, store.UpdateWaitlistEntry(entryA))
	entryB := addWaiting(t, store, meeting.ID, userB.ID, 2)

	assert.NoError(t, svc.Convert(userA.ID, meeting.ID))

	storedA, _ := store.GetWaitlistEntry(entryA.ID)
	assert.Equal(t, models.WaitlistStatusConverted, storedA.Status)

	storedB, _ := store.GetWaitlistEntry(entryB.ID)
	assert.Equal(t, 1, storedB.Position)
}

func TestConvert_MissingEntryIsNotAnError(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewWaitlistService(store, &mockNotifier{}, nil)
	meeting := fullMeeting(t, store, 2)
	user := testUser(t, store, "민지")

	assert.NoError(t, svc.Convert(user.ID, meeting.ID))
}

func TestResponseWindowTiers(t *testing.T) {
	svc := NewWaitlistService(storage.NewMemoryStore(), &mockNotifier{}, nil)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	// More than three days out: 24 hours to respond.
	deadline := svc.ResponseDeadline(base.Add(5 * 24 * time.Hour))
	assert.Equal(t, base.Add(24*time.Hour), deadline)

	// Between one and three days: 6 hours.
	deadline = svc.ResponseDeadline(base.Add(2 * 24 * time.Hour))
	assert.Equal(t, base.Add(6*time.Hour), deadline)

	// Inside a day: 2 hours.
	deadline = svc.ResponseDeadline(base.Add(10 * time.Hour))
	assert.Equal(t, base.Add(2*time.Hour), deadline)
}
