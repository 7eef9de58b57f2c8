package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
	"github.com/jidokhae/jidokhae-backend/internal/utils"
)

// OTP verification failure reasons. All of these are expected control flow,
// not server faults, so callers map them to user-facing messages.
var (
	ErrOTPNotRequested     = errors.New("no verification code was requested for this phone")
	ErrOTPExpired          = errors.New("verification code has expired")
	ErrOTPAttemptsExceeded = errors.New("too many verification attempts")
	ErrOTPMismatch         = errors.New("verification code does not match")
)

const (
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
)

// OTPService issues and verifies phone verification codes. Records live in
// the shared store so verification works across process instances.
type OTPService struct {
	store storage.Store
	sms   SMSSender
	now   func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(store storage.Store, sms SMSSender) *OTPService {
	return &OTPService{
		store: store,
		sms:   sms,
		now:   time.Now,
	}
}

// Issue generates a fresh 6-digit code for the phone, overwriting any
// existing record, and delivers it by SMS. The code never appears in
// responses or logs.
func (s *OTPService) Issue(phone string) error {
	normalized := utils.NormalizePhone(phone)

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	record := &models.PhoneOTP{
		Phone:     normalized,
		Code:      code,
		ExpiresAt: s.now().Add(otpTTL),
		Attempts:  0,
	}
	if err := s.store.UpsertOTP(record); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	body := fmt.Sprintf("[지독해] 인증번호 [%s]를 입력해주세요.", code)
	if err := s.sms.SendSMS(normalized, body); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// Verify checks a submitted code against the stored record.
//
// A record is consumed exactly once: it is deleted on success, on expiry,
// and once the attempt ceiling is hit. A plain mismatch keeps the record
// (with the attempt counted) so the user can retry.
func (s *OTPService) Verify(phone, submittedCode string) error {
	normalized := utils.NormalizePhone(phone)

	record, err := s.store.GetOTP(normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrOTPNotRequested
		}
		return err
	}

	if s.now().After(record.ExpiresAt) {
		if err := s.store.DeleteOTP(normalized); err != nil {
			return err
		}
		return ErrOTPExpired
	}

	if record.Attempts >= otpMaxAttempts {
		if err := s.store.DeleteOTP(normalized); err != nil {
			return err
		}
		return ErrOTPAttemptsExceeded
	}

	record.Attempts++
	if err := s.store.UpdateOTP(record); err != nil {
		return err
	}

	if record.Code != submittedCode {
		return ErrOTPMismatch
	}

	if err := s.store.DeleteOTP(normalized); err != nil {
		return err
	}
	return nil
}
