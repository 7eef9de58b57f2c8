package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender sends a single text message. Implementations must not log the
// message body: OTP codes travel through here.
type SMSSender interface {
	SendSMS(to, body string) error
}

// TwilioService sends SMS via Twilio
type TwilioService struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   from,
	}, nil
}

// SendSMS sends a text message via Twilio
func (t *TwilioService) SendSMS(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send SMS to %s: %v", maskPhone(to), err)
		return err
	}

	log.Printf("SMS sent to %s, SID: %s", maskPhone(to), *resp.Sid)
	return nil
}

// MockSMSSender logs sends instead of delivering them, for local development
// without Twilio credentials. The body is deliberately not logged.
type MockSMSSender struct{}

func (MockSMSSender) SendSMS(to, body string) error {
	log.Printf("[mock sms] would send %d chars to %s", len(body), maskPhone(to))
	return nil
}

// maskPhone hides the tail of a phone number for log output
func maskPhone(phone string) string {
	if len(phone) <= 7 {
		return "****"
	}
	return phone[:7] + "****"
}
