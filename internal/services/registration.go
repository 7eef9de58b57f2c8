package services

import (
	"errors"
	"log"
	"time"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/queue"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// ErrNotPendingTransfer is returned when an admin confirms a registration
// that is not awaiting a bank transfer.
var ErrNotPendingTransfer = errors.New("registration is not awaiting transfer confirmation")

// RegistrationResult is the user-facing outcome of a registration request
type RegistrationResult struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Registration *models.Registration `json:"registration,omitempty"`
}

// RegistrationService handles meeting sign-ups, cancellations and manual
// transfer confirmations
type RegistrationService struct {
	store          storage.Store
	notifier       Notifier
	waitlists      *WaitlistService
	publisher      *queue.Publisher
	notifyOnCancel bool
	now            func() time.Time
}

// NewRegistrationService creates a new registration service. When
// notifyOnCancel is set, cancelling a confirmed registration immediately
// offers the freed seat to the first waiting user.
func NewRegistrationService(store storage.Store, notifier Notifier, waitlists *WaitlistService, publisher *queue.Publisher, notifyOnCancel bool) *RegistrationService {
	return &RegistrationService{
		store:          store,
		notifier:       notifier,
		waitlists:      waitlists,
		publisher:      publisher,
		notifyOnCancel: notifyOnCancel,
		now:            time.Now,
	}
}

// Create signs the user up for a meeting. Card payments confirm
// immediately; bank transfers stay pending until an admin confirms the
// deposit.
func (s *RegistrationService) Create(userID, meetingID, paymentMethod, depositorName string) (*RegistrationResult, error) {
	meeting, err := s.store.GetMeeting(meetingID)
	if err != nil {
		return nil, err
	}

	if meeting.Status != models.MeetingStatusOpen {
		return &RegistrationResult{Success: false, Message: "신청할 수 없는 모임입니다."}, nil
	}
	if meeting.HasStarted(s.now()) {
		return &RegistrationResult{Success: false, Message: "이미 종료된 모임입니다."}, nil
	}

	if _, err := s.store.GetActiveRegistration(userID, meetingID); err == nil {
		return &RegistrationResult{Success: false, Message: "이미 신청한 모임입니다."}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if meeting.IsFull() {
		// A user holding a notified waitlist entry registers into the seat
		// that was offered to them; everyone else goes to the waitlist.
		entry, err := s.store.GetActiveWaitlistEntry(userID, meetingID)
		if err != nil || entry.Status != models.WaitlistStatusNotified {
			return &RegistrationResult{Success: false, Message: "모임이 마감되었습니다. 대기 등록을 이용해주세요."}, nil
		}
	}

	reg := &models.Registration{
		MeetingID:     meetingID,
		UserID:        userID,
		PaymentMethod: paymentMethod,
		DepositorName: depositorName,
		Amount:        meeting.Fee,
		Status:        models.RegistrationStatusPendingTransfer,
	}

	if paymentMethod == models.PaymentMethodCard {
		now := s.now()
		reg.Status = models.RegistrationStatusConfirmed
		reg.ConfirmedAt = &now
	}

	if _, err := s.store.CreateRegistration(reg); err != nil {
		return nil, err
	}

	if reg.Status == models.RegistrationStatusConfirmed {
		if err := s.finalizeConfirmed(reg, meeting, models.TemplateRegistrationDone); err != nil {
			return nil, err
		}
		return &RegistrationResult{
			Success:      true,
			Message:      "모임 신청이 완료되었습니다.",
			Registration: reg,
		}, nil
	}

	return &RegistrationResult{
		Success:      true,
		Message:      "신청이 접수되었습니다. 입금 확인 후 확정됩니다.",
		Registration: reg,
	}, nil
}

// Cancel cancels the caller's own registration and frees the seat
func (s *RegistrationService) Cancel(registrationID, requestingUserID string) (*RegistrationResult, error) {
	reg, err := s.store.GetRegistration(registrationID)
	if err != nil {
		return nil, err
	}

	if reg.UserID != requestingUserID {
		return nil, ErrNotOwner
	}

	if reg.Status == models.RegistrationStatusCancelled {
		return &RegistrationResult{Success: false, Message: "이미 취소된 신청입니다."}, nil
	}

	meeting, err := s.store.GetMeeting(reg.MeetingID)
	if err != nil {
		return nil, err
	}
	if meeting.HasStarted(s.now()) {
		return &RegistrationResult{Success: false, Message: "이미 시작된 모임은 취소할 수 없습니다."}, nil
	}

	wasConfirmed := reg.Status == models.RegistrationStatusConfirmed

	now := s.now()
	reg.Status = models.RegistrationStatusCancelled
	reg.CancelledAt = &now
	if err := s.store.UpdateRegistration(reg); err != nil {
		return nil, err
	}

	if wasConfirmed {
		if meeting.CurrentParticipants > 0 {
			meeting.CurrentParticipants--
		}
		if err := s.store.UpdateMeeting(meeting); err != nil {
			return nil, err
		}

		if s.notifyOnCancel && meeting.Status == models.MeetingStatusOpen && !meeting.IsFull() {
			if _, err := s.waitlists.AdvanceOnVacancy(meeting.ID); err != nil {
				log.Printf("Failed to offer freed seat (meeting=%s): %v", meeting.ID, err)
			}
		}
	}

	return &RegistrationResult{Success: true, Message: "신청이 취소되었습니다."}, nil
}

// ConfirmTransfer finalizes a bank-transfer registration after an admin
// verified the deposit
func (s *RegistrationService) ConfirmTransfer(registrationID string) (*models.Registration, error) {
	reg, err := s.store.GetRegistration(registrationID)
	if err != nil {
		return nil, err
	}

	if reg.Status != models.RegistrationStatusPendingTransfer {
		return nil, ErrNotPendingTransfer
	}

	meeting, err := s.store.GetMeeting(reg.MeetingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reg.Status = models.RegistrationStatusConfirmed
	reg.ConfirmedAt = &now
	if err := s.store.UpdateRegistration(reg); err != nil {
		return nil, err
	}

	if err := s.finalizeConfirmed(reg, meeting, models.TemplateTransferConfirmed); err != nil {
		return nil, err
	}
	return reg, nil
}

// finalizeConfirmed takes the seat, converts any waitlist entry, and sends
// the confirmation notice. Notification and event publishing are best
// effort: the registration is already confirmed.
func (s *RegistrationService) finalizeConfirmed(reg *models.Registration, meeting *models.Meeting, templateCode string) error {
	meeting.CurrentParticipants++
	if err := s.store.UpdateMeeting(meeting); err != nil {
		return err
	}

	if err := s.waitlists.Convert(reg.UserID, reg.MeetingID); err != nil {
		log.Printf("Failed to convert waitlist entry (user=%s meeting=%s): %v", reg.UserID, reg.MeetingID, err)
	}

	user, err := s.store.GetUser(reg.UserID)
	if err != nil {
		log.Printf("Failed to load user %s for confirmation notice: %v", reg.UserID, err)
		return nil
	}

	err = s.notifier.Send(templateCode, user.Phone, map[string]string{
		"이름":  user.Name,
		"모임명": meeting.Title,
		"일시":  meeting.Datetime.Format("1월 2일 15:04"),
	}, user.ID, meeting.ID)
	if err != nil {
		log.Printf("Failed to send confirmation notice (reg=%s): %v", reg.ID, err)
	}

	err = s.publisher.Publish(queue.KeyRegistrationConfirmed, map[string]string{
		"registration_id": reg.ID,
		"meeting_id":      meeting.ID,
		"user_id":         reg.UserID,
	})
	if err != nil {
		log.Printf("Failed to publish confirmation event (reg=%s): %v", reg.ID, err)
	}

	return nil
}
