package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

type recordingSMS struct {
	bodies []string
	fail   bool
}

func (r *recordingSMS) SendSMS(to, body string) error {
	if r.fail {
		return assert.AnError
	}
	r.bodies = append(r.bodies, body)
	return nil
}

func TestNotificationSend_RendersAndLogs(t *testing.T) {
	store := storage.NewMemoryStore()
	sms := &recordingSMS{}
	svc := NewNotificationService(sms, store)

	err := svc.Send(models.TemplateWaitlistSpot, "01012345678", map[string]string{
		"이름":   "민지",
		"모임명":  "한강 독서 모임",
		"응답시간": "6시간",
	}, "user-1", "meeting-1")
	assert.NoError(t, err)

	assert.Len(t, sms.bodies, 1)
	body := sms.bodies[0]
	assert.Contains(t, body, "민지")
	assert.Contains(t, body, "한강 독서 모임")
	assert.Contains(t, body, "6시간")
	assert.NotContains(t, body, "{", "every placeholder must be substituted")

	logs, err := store.GetNotificationLogs(10)
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, models.NotificationStatusSent, logs[0].Status)
	assert.Equal(t, models.TemplateWaitlistSpot, logs[0].TemplateCode)
	assert.Equal(t, "user-1", logs[0].UserID)
}

func TestNotificationSend_FailureIsLogged(t *testing.T) {
	store := storage.NewMemoryStore()
	sms := &recordingSMS{fail: true}
	svc := NewNotificationService(sms, store)

	err := svc.Send(models.TemplateReminderD1, "01012345678", map[string]string{
		"이름":  "민지",
		"모임명": "달빛 독서 모임",
		"장소":  "망원동 책방",
	}, "user-1", "meeting-1")
	assert.Error(t, err)

	logs, err := store.GetNotificationLogs(10)
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, models.NotificationStatusFailed, logs[0].Status)
	assert.NotEmpty(t, logs[0].Error)
}

func TestNotificationSend_UnknownTemplate(t *testing.T) {
	store := storage.NewMemoryStore()
	sms := &recordingSMS{}
	svc := NewNotificationService(sms, store)

	err := svc.Send("no_such_template", "01012345678", nil, "user-1", "meeting-1")
	assert.Error(t, err)
	assert.Empty(t, sms.bodies)
}

func TestNotificationTemplates_AllCodesPresent(t *testing.T) {
	codes := []string{
		models.TemplateWaitlistSpot,
		models.TemplateWaitlistExpired,
		models.TemplateRegistrationDone,
		models.TemplateTransferConfirmed,
		models.TemplateReminderD3,
		models.TemplateReminderD1,
		models.TemplateReminderToday,
	}
	for _, code := range codes {
		body, ok := notificationTemplates[code]
		assert.True(t, ok, "template %s missing", code)
		assert.True(t, strings.HasPrefix(body, "[지독해]"), "template %s missing sender prefix", code)
	}
}
