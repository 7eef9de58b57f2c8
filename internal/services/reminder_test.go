package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

func meetingAt(t *testing.T, store storage.Store, title string, at time.Time) *models.Meeting {
	t.Helper()
	meeting, err := store.CreateMeeting(&models.Meeting{
		Title:    title,
		Location: "서울숲 카페",
		Datetime: at,
		Capacity: 10,
		Status:   models.MeetingStatusOpen,
	})
	assert.NoError(t, err)
	return meeting
}

func confirmRegistration(t *testing.T, store storage.Store, meetingID, userID string) {
	t.Helper()
	_, err := store.CreateRegistration(&models.Registration{
		MeetingID: meetingID,
		UserID:    userID,
		Status:    models.RegistrationStatusConfirmed,
	})
	assert.NoError(t, err)
}

func TestProcessReminders_PicksTheRightDays(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewReminderService(store, notifier)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return base }

	inThree := meetingAt(t, store, "3일 뒤 모임", base.AddDate(0, 0, 3))
	tomorrow := meetingAt(t, store, "내일 모임", base.AddDate(0, 0, 1))
	today := meetingAt(t, store, "오늘 모임", base.Add(8*time.Hour))
	nextWeek := meetingAt(t, store, "다음 주 모임", base.AddDate(0, 0, 7))

	user := testUser(t, store, "민지")
	for _, m := range []*models.Meeting{inThree, tomorrow, today, nextWeek} {
		confirmRegistration(t, store, m.ID, user.ID)
	}

	stats, err := svc.ProcessReminders()
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.Meetings)
	assert.Equal(t, 3, stats.Sent)
	assert.Equal(t, 0, stats.Errors)

	assert.Len(t, notifier.sentOf(models.TemplateReminderD3), 1)
	assert.Len(t, notifier.sentOf(models.TemplateReminderD1), 1)
	assert.Len(t, notifier.sentOf(models.TemplateReminderToday), 1)
}

func TestProcessReminders_OnlyConfirmedParticipants(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{}
	svc := NewReminderService(store, notifier)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return base }

	meeting := meetingAt(t, store, "내일 모임", base.AddDate(0, 0, 1))

	confirmed := testUser(t, store, "가람")
	pending := testUser(t, store, "나래")
	cancelled := testUser(t, store, "다온")

	confirmRegistration(t, store, meeting.ID, confirmed.ID)
	_, err := store.CreateRegistration(&models.Registration{
		MeetingID: meeting.ID,
		UserID:    pending.ID,
		Status:    models.RegistrationStatusPendingTransfer,
	})
	assert.NoError(t, err)
	_, err = store.CreateRegistration(&models.Registration{
		MeetingID: meeting.ID,
		UserID:    cancelled.ID,
		Status:    models.RegistrationStatusCancelled,
	})
	assert.NoError(t, err)

	stats, err := svc.ProcessReminders()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)

	sends := notifier.sentOf(models.TemplateReminderD1)
	assert.Len(t, sends, 1)
	assert.Equal(t, confirmed.ID, sends[0].UserID)
}

func TestProcessReminders_SendFailureIsIsolated(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &mockNotifier{failTemplates: map[string]bool{models.TemplateReminderD1: true}}
	svc := NewReminderService(store, notifier)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return base }

	tomorrow := meetingAt(t, store, "내일 모임", base.AddDate(0, 0, 1))
	today := meetingAt(t, store, "오늘 모임", base.Add(8*time.Hour))

	user := testUser(t, store, "민지")
	confirmRegistration(t, store, tomorrow.ID, user.ID)
	confirmRegistration(t, store, today.ID, user.ID)

	// The D-1 send fails but the day-of reminder still goes out.
	stats, err := svc.ProcessReminders()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Errors)
	assert.Len(t, notifier.sentOf(models.TemplateReminderToday), 1)
}

func TestAutoComplete(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewReminderService(store, &mockNotifier{})

	past := meetingAt(t, store, "지난 모임", time.Now().Add(-24*time.Hour))
	upcoming := meetingAt(t, store, "다가오는 모임", time.Now().Add(24*time.Hour))

	alreadyCancelled := meetingAt(t, store, "취소된 모임", time.Now().Add(-48*time.Hour))
	alreadyCancelled.Status = models.MeetingStatusCancelled
	assert.NoError(t, store.UpdateMeeting(alreadyCancelled))

	completed, err := svc.AutoComplete()
	assert.NoError(t, err)
	assert.Equal(t, 1, completed)

	stored, _ := store.GetMeeting(past.ID)
	assert.Equal(t, models.MeetingStatusCompleted, stored.Status)

	stored, _ = store.GetMeeting(upcoming.ID)
	assert.Equal(t, models.MeetingStatusOpen, stored.Status)

	stored, _ = store.GetMeeting(alreadyCancelled.ID)
	assert.Equal(t, models.MeetingStatusCancelled, stored.Status)
}
