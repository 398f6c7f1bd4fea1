package services

import (
	"fmt"
	"testing"
)

func TestFormatMessage(t *testing.T) {
	template := "Teacher: {teacher_name}, Student: {student_name}, at {meeting_time}"
	got := FormatMessage(template, map[string]string{
		"teacher_name": "Alice",
		"student_name": "Bob",
		"meeting_time": "15:00",
	})
	want := "Teacher: Alice, Student: Bob, at 15:00"
	if got != want {
		t.Fatalf("FormatMessage = %q, want %q", got, want)
	}
}

func TestFormatMessageLeavesUnknownPlaceholders(t *testing.T) {
	got := FormatMessage("Hi {name}", map[string]string{"other": "x"})
	if got != "Hi {name}" {
		t.Fatalf("FormatMessage = %q", got)
	}
}

func TestMessageLogCapped(t *testing.T) {
	s := &WhatsAppService{}

	for i := 0; i < maxMessageLogs+50; i++ {
		s.addLog(fmt.Sprintf("+1415555%04d", i), "body", "sent", "", "")
	}

	logs := s.GetMessageLogs(0)
	if len(logs) != maxMessageLogs {
		t.Fatalf("log length = %d, want %d", len(logs), maxMessageLogs)
	}

	// Newest entry first
	want := fmt.Sprintf("+1415555%04d", maxMessageLogs+49)
	if logs[0].To != want {
		t.Fatalf("logs[0].To = %q, want %q", logs[0].To, want)
	}
}

func TestGetMessageLogsLimit(t *testing.T) {
	s := &WhatsAppService{}
	for i := 0; i < 10; i++ {
		s.addLog("+14155550100", "body", "sent", "", "")
	}

	if got := len(s.GetMessageLogs(3)); got != 3 {
		t.Fatalf("limited logs = %d, want 3", got)
	}
	if got := len(s.GetMessageLogs(100)); got != 10 {
		t.Fatalf("over-limit logs = %d, want 10", got)
	}
}

func TestSendMessageUnconfiguredFailsAndLogs(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	s := NewWhatsAppService()

	if err := s.SendMessage("+14155550100", "hello"); err == nil {
		t.Fatal("expected error when Twilio is not configured")
	}

	logs := s.GetMessageLogs(1)
	if len(logs) != 1 {
		t.Fatalf("log length = %d, want 1", len(logs))
	}
	if logs[0].Status != "failed" || logs[0].Error == "" {
		t.Fatalf("unexpected log entry: %+v", logs[0])
	}
}

func TestClearMessageLogs(t *testing.T) {
	s := &WhatsAppService{}
	s.addLog("+14155550100", "body", "sent", "", "")

	s.ClearMessageLogs()

	if got := len(s.GetMessageLogs(0)); got != 0 {
		t.Fatalf("logs after clear = %d, want 0", got)
	}
}
