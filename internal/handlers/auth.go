package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/middleware"
	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/services"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
	"github.com/jidokhae/jidokhae-backend/internal/utils"
)

var validate = validator.New()

// AuthHandler handles phone verification and session issuance
type AuthHandler struct {
	store storage.Store
	otp   *services.OTPService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store storage.Store, otp *services.OTPService) *AuthHandler {
	return &AuthHandler{store: store, otp: otp}
}

type sendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
	Name  string `json:"name"`
}

// SendOTP issues a verification code and delivers it by SMS.
// The code itself never appears in the response.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "전화번호를 입력해주세요.",
		})
	}

	normalized := utils.NormalizePhone(req.Phone)
	if len(normalized) < 10 || len(normalized) > 11 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "올바른 전화번호를 입력해주세요.",
		})
	}

	if err := h.otp.Issue(normalized); err != nil {
		log.Printf("Failed to issue OTP: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "인증번호 발송에 실패했습니다.",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "인증번호가 발송되었습니다.",
	})
}

// VerifyOTP checks the submitted code. Every failure reason maps to its
// own message; all of them are expected control flow, returned with 200.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "전화번호와 6자리 인증번호를 입력해주세요.",
		})
	}

	normalized := utils.NormalizePhone(req.Phone)

	if err := h.otp.Verify(normalized, req.Code); err != nil {
		message, expected := otpFailureMessage(err)
		if !expected {
			log.Printf("OTP verification error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "서버 오류가 발생했습니다.",
			})
		}
		return c.JSON(fiber.Map{
			"valid": false,
			"error": message,
		})
	}

	user, err := h.findOrCreateUser(normalized, req.Name)
	if err != nil {
		log.Printf("Failed to load user for phone verification: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "서버 오류가 발생했습니다.",
		})
	}

	token, err := middleware.IssueToken(user.ID, user.Role)
	if err != nil {
		log.Printf("Failed to issue session token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "서버 오류가 발생했습니다.",
		})
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"token": token,
	})
}

func (h *AuthHandler) findOrCreateUser(phone, name string) (*models.User, error) {
	user, err := h.store.GetUserByPhone(phone)
	if errors.Is(err, storage.ErrNotFound) {
		return h.store.CreateUser(&models.User{
			Name:          name,
			Phone:         phone,
			PhoneVerified: true,
			Role:          models.RoleMember,
		})
	}
	if err != nil {
		return nil, err
	}

	if !user.PhoneVerified {
		user.PhoneVerified = true
		if err := h.store.UpdateUser(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// otpFailureMessage maps each verification failure to its user-facing
// message. The second return is false for unexpected (infrastructure)
// errors.
func otpFailureMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrOTPNotRequested):
		return "인증번호를 먼저 요청해주세요.", true
	case errors.Is(err, services.ErrOTPExpired):
		return "인증번호가 만료되었습니다. 다시 요청해주세요.", true
	case errors.Is(err, services.ErrOTPAttemptsExceeded):
		return "인증 시도 횟수를 초과했습니다. 다시 요청해주세요.", true
	case errors.Is(err, services.ErrOTPMismatch):
		return "인증번호가 일치하지 않습니다.", true
	default:
		return "", false
	}
}
