package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"meetremind-backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMessenger struct {
	mu           sync.Mutex
	teacherSends []string
	studentSends []string
	retrySends   []string
	failTeacher  bool
	failStudent  bool
	failRetry    bool
	retryCalls   int
}

func (f *fakeMessenger) SendTeacherReminder(phone, teacherName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTeacher {
		return errors.New("teacher send failed")
	}
	f.teacherSends = append(f.teacherSends, phone)
	return nil
}

func (f *fakeMessenger) SendStudentReminder(phone, date, timeStr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStudent {
		return errors.New("student send failed")
	}
	f.studentSends = append(f.studentSends, phone)
	return nil
}

func (f *fakeMessenger) SendMessageWithRetry(to, body string, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryCalls++
	if f.failRetry {
		return errors.New("send failed after retries")
	}
	f.retrySends = append(f.retrySends, to)
	return nil
}

func (f *fakeMessenger) sendCounts() (teacher, student int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.teacherSends), len(f.studentSends)
}

type fakeSheet struct {
	mu       sync.Mutex
	pending  []SheetMessage
	statuses map[int64]string
	reads    int
}

func (f *fakeSheet) GetPendingMessages() ([]SheetMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SheetMessage(nil), f.pending...), nil
}

func (f *fakeSheet) UpdateRowStatus(rowIndex int64, status string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses == nil {
		f.statuses = make(map[int64]string)
	}
	f.statuses[rowIndex] = status
	return nil
}

func (f *fakeSheet) ReadSheet() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Meeting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestScheduler(t *testing.T) (*SchedulerService, *fakeMessenger, *fakeSheet) {
	t.Helper()
	messenger := &fakeMessenger{}
	sheet := &fakeSheet{}
	return NewSchedulerService(testDB(t), messenger, sheet), messenger, sheet
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func futureMeetingInput() AddMeetingInput {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	return AddMeetingInput{
		TeacherName:     "Alice",
		TeacherPhone:    "+14155550100",
		StudentName:     "Bob",
		StudentPhone:    "+14155550101",
		Date:            tomorrow,
		Time:            "15:00",
		ReminderMinutes: 120,
	}
}

func TestAddMeetingArmsTimer(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	meeting, err := s.AddMeeting(futureMeetingInput())
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	if meeting.Status != models.MeetingStatusScheduled {
		t.Fatalf("status = %q, want scheduled", meeting.Status)
	}
	if meeting.ReminderSent {
		t.Fatal("reminderSent = true on creation")
	}
	if !s.HasPendingReminder(meeting.ID) {
		t.Fatal("expected a pending timer for the new meeting")
	}

	var stored models.Meeting
	if err := s.db.First(&stored, "id = ?", meeting.ID).Error; err != nil {
		t.Fatalf("meeting not persisted: %v", err)
	}
	if stored.ReminderMinutes != 120 {
		t.Fatalf("reminderMinutes = %d, want 120", stored.ReminderMinutes)
	}
}

func TestAddMeetingDefaultsReminderMinutes(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	input := futureMeetingInput()
	input.ReminderMinutes = 0
	meeting, err := s.AddMeeting(input)
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if meeting.ReminderMinutes != models.DefaultReminderMinutes {
		t.Fatalf("reminderMinutes = %d, want %d", meeting.ReminderMinutes, models.DefaultReminderMinutes)
	}
}

func TestAddMeetingRejectsMissingFields(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	input := futureMeetingInput()
	input.StudentName = ""
	if _, err := s.AddMeeting(input); err == nil {
		t.Fatal("expected error for missing student name")
	}
}

func TestAddMeetingRejectsUnparseableTime(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	input := futureMeetingInput()
	input.Time = "25:00"
	if _, err := s.AddMeeting(input); err == nil {
		t.Fatal("expected error for invalid time")
	}

	var count int64
	s.db.Model(&models.Meeting{}).Count(&count)
	if count != 0 {
		t.Fatalf("meeting persisted despite invalid time, count=%d", count)
	}
}

func TestPastFireTimeDispatchesImmediately(t *testing.T) {
	s, messenger, _ := newTestScheduler(t)

	// Meeting one hour from now with a two hour lead: fire time is an
	// hour in the past.
	meetingAt := time.Now().Add(time.Hour)
	input := AddMeetingInput{
		TeacherName:     "Alice",
		TeacherPhone:    "+14155550100",
		StudentName:     "Bob",
		StudentPhone:    "+14155550101",
		Date:            meetingAt.Format("2006-01-02"),
		Time:            meetingAt.Format("15:04"),
		ReminderMinutes: 120,
	}

	meeting, err := s.AddMeeting(input)
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	waitFor(t, func() bool {
		teacher, student := messenger.sendCounts()
		return teacher == 1 && student == 1
	}, "both reminder sends")

	waitFor(t, func() bool {
		var stored models.Meeting
		if err := s.db.First(&stored, "id = ?", meeting.ID).Error; err != nil {
			return false
		}
		return stored.Status == models.MeetingStatusReminded && stored.ReminderSent
	}, "status flip to reminded")

	waitFor(t, func() bool {
		return s.GetStatus().MessagesSent == 2
	}, "sent counter")

	if s.HasPendingReminder(meeting.ID) {
		t.Fatal("pending timer left behind after dispatch")
	}
}

func TestTeacherSendFailureLeavesMeetingScheduled(t *testing.T) {
	s, messenger, _ := newTestScheduler(t)
	messenger.failTeacher = true

	meetingAt := time.Now().Add(time.Hour)
	meeting, err := s.AddMeeting(AddMeetingInput{
		TeacherName:     "Alice",
		TeacherPhone:    "+14155550100",
		StudentName:     "Bob",
		StudentPhone:    "+14155550101",
		Date:            meetingAt.Format("2006-01-02"),
		Time:            meetingAt.Format("15:04"),
		ReminderMinutes: 120,
	})
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	waitFor(t, func() bool {
		return s.GetStatus().MessagesFailed == 2
	}, "failed counter")

	var stored models.Meeting
	if err := s.db.First(&stored, "id = ?", meeting.ID).Error; err != nil {
		t.Fatalf("load meeting: %v", err)
	}
	if stored.Status != models.MeetingStatusScheduled || stored.ReminderSent {
		t.Fatalf("meeting mutated on failure: status=%q reminderSent=%v", stored.Status, stored.ReminderSent)
	}
	if got := s.GetStatus().MessagesSent; got != 0 {
		t.Fatalf("messagesSent = %d, want 0", got)
	}
}

func TestScheduleReminderReplacesExistingTimer(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	meeting, err := s.AddMeeting(futureMeetingInput())
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	s.ScheduleReminder(meeting)
	s.ScheduleReminder(meeting)

	if got := s.pendingTimerCount(); got != 1 {
		t.Fatalf("pending timers = %d, want 1", got)
	}
}

func TestRestorePendingRemindersIsIdempotent(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	for i := 0; i < 3; i++ {
		input := futureMeetingInput()
		input.TeacherPhone = fmt.Sprintf("+1415555010%d", i)
		if _, err := s.AddMeeting(input); err != nil {
			t.Fatalf("AddMeeting: %v", err)
		}
	}

	if err := s.RestorePendingReminders(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := s.RestorePendingReminders(); err != nil {
		t.Fatalf("second restore: %v", err)
	}

	if got := s.pendingTimerCount(); got != 3 {
		t.Fatalf("pending timers = %d, want 3", got)
	}
}

func TestRestoreSkipsRemindedMeetings(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	meeting, err := s.AddMeeting(futureMeetingInput())
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	s.CancelReminder(meeting.ID)

	sent := true
	if err := s.UpdateMeetingStatus(meeting.ID, models.MeetingStatusReminded, &sent); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if err := s.RestorePendingReminders(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := s.pendingTimerCount(); got != 0 {
		t.Fatalf("pending timers = %d, want 0", got)
	}
}

func TestGetPendingMeetingsOrdersByDateThenTime(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	for _, timeStr := range []string{"15:00", "09:00"} {
		input := futureMeetingInput()
		input.Date = date
		input.Time = timeStr
		if _, err := s.AddMeeting(input); err != nil {
			t.Fatalf("AddMeeting: %v", err)
		}
	}

	pending, err := s.GetPendingMeetings()
	if err != nil {
		t.Fatalf("GetPendingMeetings: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].Time != "09:00" || pending[1].Time != "15:00" {
		t.Fatalf("wrong order: %s, %s", pending[0].Time, pending[1].Time)
	}
}

func TestDeleteMeetingCancelsTimer(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	meeting, err := s.AddMeeting(futureMeetingInput())
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	if err := s.DeleteMeeting(meeting.ID); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
	if s.HasPendingReminder(meeting.ID) {
		t.Fatal("timer still armed after delete")
	}

	var count int64
	s.db.Model(&models.Meeting{}).Count(&count)
	if count != 0 {
		t.Fatalf("meeting row still present, count=%d", count)
	}
}

func TestDeleteMeetingNotFound(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	meeting, _ := s.AddMeeting(futureMeetingInput())
	if err := s.DeleteMeeting(meeting.ID); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
	if err := s.DeleteMeeting(meeting.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestCheckAndSendMessagesProcessesPendingRows(t *testing.T) {
	s, messenger, sheet := newTestScheduler(t)

	sheet.pending = []SheetMessage{
		{RowIndex: 2, Teacher: "Alice", Student: "Bob", Phone: "+14155550100", Date: "2026-03-15", Time: "15:00"},
		{RowIndex: 3, Teacher: "Carol", Student: "Dan", Phone: "not-a-phone", Date: "2026-03-15", Time: "16:00"},
	}

	s.CheckAndSendMessages()

	if got := sheet.statuses[2]; got != "Sent" {
		t.Fatalf("row 2 status = %q, want Sent", got)
	}
	if got := sheet.statuses[3]; got != "Failed" {
		t.Fatalf("row 3 status = %q, want Failed", got)
	}

	status := s.GetStatus()
	if status.MessagesSent != 1 || status.MessagesFailed != 1 {
		t.Fatalf("counters = %d sent / %d failed, want 1/1", status.MessagesSent, status.MessagesFailed)
	}
	if messenger.retryCalls != 1 {
		t.Fatalf("retryCalls = %d, want 1 (invalid phone must not reach the messenger)", messenger.retryCalls)
	}
	if status.LastCheck == nil {
		t.Fatal("lastCheck not recorded")
	}
}

func TestCheckAndSendMessagesMarksFailedAfterRetries(t *testing.T) {
	s, messenger, sheet := newTestScheduler(t)
	messenger.failRetry = true

	sheet.pending = []SheetMessage{
		{RowIndex: 2, Teacher: "Alice", Student: "Bob", Phone: "+14155550100", Date: "2026-03-15", Time: "15:00"},
	}

	s.CheckAndSendMessages()

	if got := sheet.statuses[2]; got != "Failed" {
		t.Fatalf("row status = %q, want Failed", got)
	}
	if got := s.GetStatus().MessagesFailed; got != 1 {
		t.Fatalf("messagesFailed = %d, want 1", got)
	}
}

func TestSyncSheetRecordsLastSync(t *testing.T) {
	s, _, sheet := newTestScheduler(t)

	s.SyncSheet()

	if sheet.reads != 1 {
		t.Fatalf("reads = %d, want 1", sheet.reads)
	}
	if s.GetStatus().LastSync == nil {
		t.Fatal("lastSync not recorded")
	}
}

func TestResetStats(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.addSent(5)
	s.addFailed(3)

	s.ResetStats()

	status := s.GetStatus()
	if status.MessagesSent != 0 || status.MessagesFailed != 0 {
		t.Fatalf("counters not reset: %d/%d", status.MessagesSent, status.MessagesFailed)
	}
}

func TestGetMeetingStats(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	meeting, err := s.AddMeeting(futureMeetingInput())
	if err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	input := futureMeetingInput()
	input.TeacherPhone = "+14155550199"
	if _, err := s.AddMeeting(input); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	sent := true
	if err := s.UpdateMeetingStatus(meeting.ID, models.MeetingStatusReminded, &sent); err != nil {
		t.Fatalf("update status: %v", err)
	}

	stats, err := s.GetMeetingStats()
	if err != nil {
		t.Fatalf("GetMeetingStats: %v", err)
	}
	if stats.Total != 2 || stats.Scheduled != 1 || stats.Reminded != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
