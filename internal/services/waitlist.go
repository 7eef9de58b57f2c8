package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/queue"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// ErrNotOwner is returned when a caller tries to act on someone else's
// waitlist entry. Handlers map it to 401, distinct from not-found.
var ErrNotOwner = errors.New("caller does not own this waitlist entry")

// WaitlistResult is the user-facing outcome of a join or cancel request.
// Success=false with a message covers state conflicts ("already waiting",
// "meeting still has seats") that are not errors.
type WaitlistResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Position int    `json:"position,omitempty"`
}

// SweepStats aggregates one expiry sweep run
type SweepStats struct {
	Processed int `json:"processed"`
	Notified  int `json:"notified"`
	Errors    int `json:"errors"`
}

// WaitlistService manages the ordered queue of users waiting for a seat
type WaitlistService struct {
	store     storage.Store
	notifier  Notifier
	publisher *queue.Publisher
	now       func() time.Time
}

// NewWaitlistService creates a new waitlist service. The publisher may be
// nil when no broker is configured.
func NewWaitlistService(store storage.Store, notifier Notifier, publisher *queue.Publisher) *WaitlistService {
	return &WaitlistService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
	}
}

// Join queues the user for a full meeting at position count(waiting)+1
func (s *WaitlistService) Join(meetingID, userID string) (*WaitlistResult, error) {
	meeting, err := s.store.GetMeeting(meetingID)
	if err != nil {
		return nil, err
	}

	if meeting.HasStarted(s.now()) {
		return &WaitlistResult{Success: false, Message: "이미 종료된 모임입니다."}, nil
	}

	if !meeting.IsFull() {
		return &WaitlistResult{Success: false, Message: "아직 자리가 있습니다. 신청하기를 이용해주세요."}, nil
	}

	if _, err := s.store.GetActiveRegistration(userID, meetingID); err == nil {
		return &WaitlistResult{Success: false, Message: "이미 신청한 모임입니다."}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if existing, err := s.store.GetWaitingEntry(userID, meetingID); err == nil {
		return &WaitlistResult{
			Success:  false,
			Message:  fmt.Sprintf("이미 대기 중입니다. (%d번째)", existing.Position),
			Position: existing.Position,
		}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	count, err := s.store.CountWaiting(meetingID)
	if err != nil {
		return nil, err
	}
	position := int(count) + 1

	entry := &models.WaitlistEntry{
		MeetingID: meetingID,
		UserID:    userID,
		Position:  position,
		Status:    models.WaitlistStatusWaiting,
	}
	if _, err := s.store.CreateWaitlistEntry(entry); err != nil {
		return nil, err
	}

	return &WaitlistResult{
		Success:  true,
		Message:  fmt.Sprintf("대기 등록이 완료되었습니다. (%d번째)", position),
		Position: position,
	}, nil
}

// Cancel removes the caller's waiting entry and renumbers the entries
// behind it. Only the owner can cancel, and only entries still in the
// waiting state; no notifications are sent from this path.
func (s *WaitlistService) Cancel(entryID, requestingUserID string) (*WaitlistResult, error) {
	entry, err := s.store.GetWaitlistEntry(entryID)
	if err != nil {
		return nil, err
	}

	if entry.UserID != requestingUserID {
		return nil, ErrNotOwner
	}

	if entry.Status != models.WaitlistStatusWaiting {
		return &WaitlistResult{Success: false, Message: "취소할 수 없는 대기 상태입니다."}, nil
	}

	if err := s.store.RemoveWaitingEntry(entry); err != nil {
		return nil, err
	}

	return &WaitlistResult{Success: true, Message: "대기가 취소되었습니다."}, nil
}

// AdvanceOnVacancy promotes the lowest-position waiting entry to notified,
// stamps its response deadline and sends exactly one SMS. It is a no-op
// when the queue is empty, and it does not re-check meeting capacity:
// callers invoke it only when a seat actually opened.
func (s *WaitlistService) AdvanceOnVacancy(meetingID string) (bool, error) {
	entry, err := s.store.GetFirstWaiting(meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	user, err := s.store.GetUser(entry.UserID)
	if err != nil {
		return false, fmt.Errorf("waitlist user lookup (entry=%s): %w", entry.ID, err)
	}
	meeting, err := s.store.GetMeeting(meetingID)
	if err != nil {
		return false, fmt.Errorf("waitlist meeting lookup (meeting=%s): %w", meetingID, err)
	}

	deadline := s.ResponseDeadline(meeting.Datetime)

	err = s.notifier.Send(models.TemplateWaitlistSpot, user.Phone, map[string]string{
		"이름":   user.Name,
		"모임명":  meeting.Title,
		"응답시간": s.responseWindowText(meeting.Datetime),
	}, user.ID, meetingID)
	if err != nil {
		return false, fmt.Errorf("waitlist notification (entry=%s): %w", entry.ID, err)
	}

	now := s.now()
	entry.Status = models.WaitlistStatusNotified
	entry.NotifiedAt = &now
	entry.ResponseDeadline = &deadline
	if err := s.store.UpdateWaitlistEntry(entry); err != nil {
		return false, fmt.Errorf("waitlist update (entry=%s): %w", entry.ID, err)
	}

	err = s.publisher.Publish(queue.KeyWaitlistNotified, map[string]string{
		"waitlist_id": entry.ID,
		"meeting_id":  meetingID,
		"user_id":     entry.UserID,
	})
	if err != nil {
		log.Printf("Failed to publish waitlist event (entry=%s): %v", entry.ID, err)
	}

	return true, nil
}

// ExpireOverdue transitions every notified entry whose deadline passed to
// expired and promotes the next waiting entry for that meeting while a
// seat is still open. Failures are isolated per entry: one bad row never
// blocks the rest, and re-running the sweep finishes any stragglers.
func (s *WaitlistService) ExpireOverdue() (*SweepStats, error) {
	stats := &SweepStats{}

	entries, err := s.store.GetOverdueNotified(s.now())
	if err != nil {
		return stats, err
	}

	for _, entry := range entries {
		entry.Status = models.WaitlistStatusExpired
		if err := s.store.UpdateWaitlistEntry(entry); err != nil {
			log.Printf("Failed to expire waitlist entry %s (meeting=%s): %v", entry.ID, entry.MeetingID, err)
			stats.Errors++
			continue
		}
		stats.Processed++

		s.notifyExpired(entry)

		meeting, err := s.store.GetMeeting(entry.MeetingID)
		if err != nil {
			log.Printf("Failed to load meeting %s for waitlist cascade: %v", entry.MeetingID, err)
			stats.Errors++
			continue
		}
		if meeting.Status != models.MeetingStatusOpen || meeting.IsFull() {
			continue
		}

		notified, err := s.AdvanceOnVacancy(entry.MeetingID)
		if err != nil {
			log.Printf("Failed to advance waitlist for meeting %s: %v", entry.MeetingID, err)
			stats.Errors++
			continue
		}
		if notified {
			stats.Notified++
		}
	}

	return stats, nil
}

// notifyExpired tells the bumped user their response window closed.
// Best effort only.
func (s *WaitlistService) notifyExpired(entry *models.WaitlistEntry) {
	user, err := s.store.GetUser(entry.UserID)
	if err != nil {
		log.Printf("Failed to load user %s for expiry notice: %v", entry.UserID, err)
		return
	}
	meeting, err := s.store.GetMeeting(entry.MeetingID)
	if err != nil {
		log.Printf("Failed to load meeting %s for expiry notice: %v", entry.MeetingID, err)
		return
	}

	err = s.notifier.Send(models.TemplateWaitlistExpired, user.Phone, map[string]string{
		"이름":  user.Name,
		"모임명": meeting.Title,
	}, user.ID, meeting.ID)
	if err != nil {
		log.Printf("Failed to send expiry notice (entry=%s user=%s): %v", entry.ID, user.ID, err)
	}
}

// Convert marks the user's waiting or notified entry as converted after a
// successful registration and closes the position gap behind it. A missing
// entry is not an error: most registrations never sat on the waitlist.
func (s *WaitlistService) Convert(userID, meetingID string) error {
	entry, err := s.store.GetActiveWaitlistEntry(userID, meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.ConvertWaitlistEntry(entry)
}

// ResponseDeadline computes how long a notified user gets to respond.
// The window tightens as the meeting approaches: more than three days out
// it is 24 hours, between one and three days 6 hours, inside a day 2 hours.
func (s *WaitlistService) ResponseDeadline(meetingAt time.Time) time.Time {
	now := s.now()
	return now.Add(s.responseWindow(meetingAt, now))
}

func (s *WaitlistService) responseWindow(meetingAt, now time.Time) time.Duration {
	daysUntil := int(meetingAt.Sub(now).Hours() / 24)
	switch {
	case daysUntil > 3:
		return 24 * time.Hour
	case daysUntil >= 1:
		return 6 * time.Hour
	default:
		return 2 * time.Hour
	}
}

func (s *WaitlistService) responseWindowText(meetingAt time.Time) string {
	switch s.responseWindow(meetingAt, s.now()) {
	case 24 * time.Hour:
		return "24시간"
	case 6 * time.Hour:
		return "6시간"
	default:
		return "2시간"
	}
}
