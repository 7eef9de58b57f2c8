package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// Notifier dispatches a templated notification to one user.
// Sends are fire-and-forget from the caller's point of view: batch callers
// log the returned error and move on to the next entry.
type Notifier interface {
	Send(templateCode, phone string, vars map[string]string, userID, meetingID string) error
}

// Message templates. Placeholders are replaced from the vars map.
var notificationTemplates = map[string]string{
	models.TemplateWaitlistSpot:      "[지독해] {이름}님, '{모임명}' 모임에 자리가 났어요! {응답시간} 안에 신청을 완료해주세요.",
	models.TemplateWaitlistExpired:   "[지독해] {이름}님, '{모임명}' 모임의 대기 응답 기한이 지나 다음 대기자에게 순서가 넘어갔습니다.",
	models.TemplateRegistrationDone:  "[지독해] {이름}님, '{모임명}' 모임 신청이 완료되었습니다. {일시}에 만나요!",
	models.TemplateTransferConfirmed: "[지독해] {이름}님, 입금이 확인되어 '{모임명}' 모임 신청이 확정되었습니다.",
	models.TemplateReminderD3:        "[지독해] {이름}님, '{모임명}' 모임이 3일 뒤에 열려요. 책을 미리 준비해주세요!",
	models.TemplateReminderD1:        "[지독해] {이름}님, '{모임명}' 모임이 내일이에요. {장소}에서 만나요!",
	models.TemplateReminderToday:     "[지독해] {이름}님, 오늘 '{모임명}' 모임이 있어요. {장소}에서 만나요!",
}

// NotificationService sends templated SMS and records every attempt in the
// notification log
type NotificationService struct {
	sms   SMSSender
	store storage.Store
}

// NewNotificationService creates a new notification service
func NewNotificationService(sms SMSSender, store storage.Store) *NotificationService {
	return &NotificationService{sms: sms, store: store}
}

// Send renders the template, delivers it, and logs the outcome
func (n *NotificationService) Send(templateCode, phone string, vars map[string]string, userID, meetingID string) error {
	body, ok := notificationTemplates[templateCode]
	if !ok {
		return fmt.Errorf("unknown notification template: %s", templateCode)
	}
	for key, value := range vars {
		body = strings.ReplaceAll(body, "{"+key+"}", value)
	}

	sendErr := n.sms.SendSMS(phone, body)

	entry := &models.NotificationLog{
		UserID:       userID,
		MeetingID:    meetingID,
		Phone:        phone,
		TemplateCode: templateCode,
		Status:       models.NotificationStatusSent,
	}
	if sendErr != nil {
		entry.Status = models.NotificationStatusFailed
		entry.Error = sendErr.Error()
	}
	if err := n.store.CreateNotificationLog(entry); err != nil {
		log.Printf("Failed to write notification log (template=%s user=%s): %v", templateCode, userID, err)
	}

	return sendErr
}
