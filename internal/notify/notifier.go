package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier sends a WhatsApp text to a phone number. Fire-and-forget: a
// failed send is the caller's to log, never to retry here.
type Notifier interface {
	Send(ctx context.Context, to string, body string) error
}

// TwilioNotifier sends WhatsApp messages via the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string // "whatsapp:+14155238886"
}

// NewTwilioNotifier creates a notifier from environment credentials.
func NewTwilioNotifier(timeout time.Duration) (*TwilioNotifier, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	client.SetTimeout(timeout)

	return &TwilioNotifier{
		client: client,
		from:   from,
	}, nil
}

// Send delivers one WhatsApp message. The REST call is bounded by the
// client timeout set at construction.
func (t *TwilioNotifier) Send(ctx context.Context, to string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}
