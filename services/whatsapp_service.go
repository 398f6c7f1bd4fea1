// services/whatsapp_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"meetremind-backend/utils"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// maxMessageLogs caps the in-memory attempt log; oldest entries fall off.
const maxMessageLogs = 1000

const retryBackoff = 2 * time.Second

// MessageLogEntry records one outbound send attempt, newest first.
type MessageLogEntry struct {
	ID         string    `json:"id"`
	To         string    `json:"to"`
	Body       string    `json:"message"`
	Status     string    `json:"status"` // sent, failed
	Error      string    `json:"error,omitempty"`
	MessageSID string    `json:"messageId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type WhatsAppService struct {
	client     *twilio.RestClient
	fromNumber string

	mu   sync.Mutex
	logs []MessageLogEntry
}

func NewWhatsAppService() *WhatsAppService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &WhatsAppService{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		fromNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}
}

// SendMessage delivers one WhatsApp message and records the attempt.
func (s *WhatsAppService) SendMessage(to, body string) error {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" || s.fromNumber == "" {
		log.Println("WhatsApp credentials not configured")
		err := errors.New("WhatsApp not configured")
		s.addLog(to, body, "failed", err.Error(), "")
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + utils.CleanPhone(to))
	params.SetFrom("whatsapp:" + s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send message to %s: %v", to, err)
		s.addLog(to, body, "failed", err.Error(), "")
		return err
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Printf("Message sent to %s, SID: %s", to, sid)
	s.addLog(to, body, "sent", "", sid)
	return nil
}

// SendMessageWithRetry retries transient failures up to maxAttempts before
// giving up.
func (s *WhatsAppService) SendMessageWithRetry(to, body string, maxAttempts int) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.SendMessage(to, body)
		if err == nil {
			return nil
		}
		if attempt < maxAttempts {
			log.Printf("Retrying message to %s (attempt %d/%d)", to, attempt+1, maxAttempts)
			time.Sleep(retryBackoff)
		}
	}
	return err
}

func (s *WhatsAppService) SendTeacherReminder(phone, teacherName string) error {
	body := fmt.Sprintf("Hi %s, just a quick reminder about your scheduled session today. Could you please confirm?", teacherName)
	return s.SendMessage(phone, body)
}

func (s *WhatsAppService) SendStudentReminder(phone, date, timeStr string) error {
	body := fmt.Sprintf("Hi! Just a quick reminder about your class on %s at %s. Looking forward to seeing you in the session!", date, timeStr)
	return s.SendMessage(phone, body)
}

func (s *WhatsAppService) addLog(to, body, status, errMsg, sid string) {
	entry := MessageLogEntry{
		ID:         uuid.NewString(),
		To:         to,
		Body:       body,
		Status:     status,
		Error:      errMsg,
		MessageSID: sid,
		Timestamp:  time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append([]MessageLogEntry{entry}, s.logs...)
	if len(s.logs) > maxMessageLogs {
		s.logs = s.logs[:maxMessageLogs]
	}
}

// GetMessageLogs returns up to limit most recent attempts.
func (s *WhatsAppService) GetMessageLogs(limit int) []MessageLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]MessageLogEntry, limit)
	copy(out, s.logs[:limit])
	return out
}

func (s *WhatsAppService) ClearMessageLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = nil
}

// FormatMessage substitutes {field} placeholders in a message template.
func FormatMessage(template string, fields map[string]string) string {
	out := template
	for key, value := range fields {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
