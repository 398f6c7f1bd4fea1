// services/scheduler_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"meetremind-backend/models"
	"meetremind-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// maxSendAttempts bounds retries for sheet-sourced messages. Meeting
// reminders are not retried; a restart re-arms anything still unsent.
const maxSendAttempts = 3

const sheetMessageTemplate = `Hello! This is a reminder about your scheduled meeting:

Teacher: {teacher_name}
Student: {student_name}
Date: {meeting_date}
Time: {meeting_time}

Please be on time. Thank you!`

// Messenger is the outbound messaging capability consumed by the scheduler.
type Messenger interface {
	SendTeacherReminder(phone, teacherName string) error
	SendStudentReminder(phone, date, timeStr string) error
	SendMessageWithRetry(to, body string, maxAttempts int) error
}

// SheetSource is the spreadsheet-backed queue the poller reconciles.
type SheetSource interface {
	GetPendingMessages() ([]SheetMessage, error)
	UpdateRowStatus(rowIndex int64, status string, ts time.Time) error
	ReadSheet() error
}

// AddMeetingInput carries the fields for scheduling a new meeting.
type AddMeetingInput struct {
	TeacherID       string
	TeacherName     string
	TeacherPhone    string
	StudentID       string
	StudentName     string
	StudentPhone    string
	Date            string
	Time            string
	ReminderMinutes int
}

// SchedulerStatus is a read-only snapshot of the scheduler.
type SchedulerStatus struct {
	IsRunning      bool       `json:"isRunning"`
	LastSync       *time.Time `json:"lastSync"`
	LastCheck      *time.Time `json:"lastCheck"`
	MessagesSent   int        `json:"messagesSent"`
	MessagesFailed int        `json:"messagesFailed"`
	CheckInterval  string     `json:"checkInterval"`
	SyncInterval   string     `json:"syncInterval"`
}

// MeetingStats are store-level counts by lifecycle status.
type MeetingStats struct {
	Total     int64 `json:"total"`
	Scheduled int64 `json:"scheduled"`
	Reminded  int64 `json:"reminded"`
	Completed int64 `json:"completed"`
}

// SchedulerService owns the per-meeting reminder timers and the two
// periodic sheet loops. All mutable state lives on the instance so tests
// can run independent schedulers side by side.
type SchedulerService struct {
	db        *gorm.DB
	messenger Messenger
	sheets    SheetSource

	mu               sync.Mutex
	cron             *cron.Cron
	isRunning        bool
	lastSync         *time.Time
	lastCheck        *time.Time
	messagesSent     int
	messagesFailed   int
	activeReminders  map[uuid.UUID]*time.Timer
	checkIntervalMin int
	syncIntervalMin  int

	// wg tracks in-flight dispatches so Drain can join them on shutdown.
	wg sync.WaitGroup
}

func NewSchedulerService(db *gorm.DB, messenger Messenger, sheets SheetSource) *SchedulerService {
	return &SchedulerService{
		db:               db,
		messenger:        messenger,
		sheets:           sheets,
		activeReminders:  make(map[uuid.UUID]*time.Timer),
		checkIntervalMin: envMinutes("CHECK_INTERVAL_MINUTES", 1),
		syncIntervalMin:  envMinutes("SYNC_INTERVAL_MINUTES", 5),
	}
}

func envMinutes(key string, fallback int) int {
	if env := os.Getenv(key); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// AddMeeting persists a meeting and arms its reminder. Unparseable dates
// and times are rejected up front rather than accepted and silently never
// reminded.
func (s *SchedulerService) AddMeeting(input AddMeetingInput) (*models.Meeting, error) {
	if input.TeacherName == "" || input.StudentName == "" || input.Date == "" || input.Time == "" {
		return nil, errors.New("missing required fields")
	}
	if _, ok := utils.ParseClockTime(input.Time); !ok {
		return nil, fmt.Errorf("invalid time format: %q", input.Time)
	}
	if _, err := utils.ParseMeetingDate(input.Date); err != nil {
		return nil, fmt.Errorf("invalid date: %q", input.Date)
	}

	reminderMinutes := input.ReminderMinutes
	if reminderMinutes <= 0 {
		reminderMinutes = models.DefaultReminderMinutes
	}

	meeting := &models.Meeting{
		TeacherID:       input.TeacherID,
		TeacherName:     input.TeacherName,
		TeacherPhone:    input.TeacherPhone,
		StudentID:       input.StudentID,
		StudentName:     input.StudentName,
		StudentPhone:    input.StudentPhone,
		Date:            input.Date,
		Time:            input.Time,
		ReminderMinutes: reminderMinutes,
		Status:          models.MeetingStatusScheduled,
		ReminderSent:    false,
	}

	if err := s.db.Create(meeting).Error; err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	s.ScheduleReminder(meeting)
	return meeting, nil
}

// ScheduleReminder arms the reminder timer for a meeting, or dispatches
// immediately when the fire time has already passed (catch-up after a
// restart). At most one timer exists per meeting id: an existing timer is
// cancelled before the new one is armed.
func (s *SchedulerService) ScheduleReminder(meeting *models.Meeting) {
	clock, ok := utils.ParseClockTime(meeting.Time)
	if !ok {
		log.Printf("Meeting %s has invalid time %q, skipping reminder", meeting.ID, meeting.Time)
		return
	}
	date, err := utils.ParseMeetingDate(meeting.Date)
	if err != nil {
		log.Printf("Meeting %s has invalid date %q, skipping reminder", meeting.ID, meeting.Date)
		return
	}

	leadMinutes := meeting.ReminderMinutes
	if leadMinutes <= 0 {
		leadMinutes = models.DefaultReminderMinutes
	}

	fireAt := utils.ReminderFireTime(date, clock, leadMinutes)
	now := time.Now()

	if !fireAt.After(now) {
		log.Printf("Reminder window for %s & %s already passed, sending now",
			meeting.TeacherName, meeting.StudentName)
		m := *meeting
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sendAutomatedReminders(&m)
		}()
		return
	}

	m := *meeting
	timer := time.AfterFunc(time.Until(fireAt), func() {
		s.wg.Add(1)
		defer s.wg.Done()
		s.sendAutomatedReminders(&m)
	})

	s.mu.Lock()
	if old, exists := s.activeReminders[meeting.ID]; exists {
		old.Stop()
		log.Printf("Replacing existing reminder timer for meeting %s", meeting.ID)
	}
	s.activeReminders[meeting.ID] = timer
	s.mu.Unlock()

	log.Printf("Reminder scheduled for %s & %s at %s (%d minutes before meeting)",
		meeting.TeacherName, meeting.StudentName, fireAt.Format(time.RFC1123), leadMinutes)
}

// sendAutomatedReminders is the dispatch pipeline: teacher send, student
// send, then the atomic status flip. Any send failure leaves the meeting
// scheduled and unsent so a later restore picks it up again.
func (s *SchedulerService) sendAutomatedReminders(meeting *models.Meeting) {
	s.mu.Lock()
	delete(s.activeReminders, meeting.ID)
	s.mu.Unlock()

	dateText := meeting.Date
	if d, err := utils.ParseMeetingDate(meeting.Date); err == nil {
		dateText = utils.FormatMeetingDate(d)
	}

	if err := s.messenger.SendTeacherReminder(meeting.TeacherPhone, meeting.TeacherName); err != nil {
		log.Printf("Failed to send reminders for meeting %s: %v", meeting.ID, err)
		s.addFailed(2)
		return
	}

	if err := s.messenger.SendStudentReminder(meeting.StudentPhone, dateText, meeting.Time); err != nil {
		log.Printf("Failed to send reminders for meeting %s: %v", meeting.ID, err)
		s.addFailed(2)
		return
	}

	sent := true
	if err := s.UpdateMeetingStatus(meeting.ID, models.MeetingStatusReminded, &sent); err != nil {
		log.Printf("Failed to update status for meeting %s: %v", meeting.ID, err)
	}
	s.addSent(2)
	log.Printf("Reminders sent for %s & %s", meeting.TeacherName, meeting.StudentName)
}

// GetMeetings returns all meetings, newest first.
func (s *SchedulerService) GetMeetings() ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.Order("created_at DESC").Find(&meetings).Error
	return meetings, err
}

// GetPendingMeetings returns scheduled, unreminded meetings ordered by
// date then time.
func (s *SchedulerService) GetPendingMeetings() ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.
		Where("status = ? AND reminder_sent = ?", models.MeetingStatusScheduled, false).
		Order("date ASC, time ASC").
		Find(&meetings).Error
	return meetings, err
}

// UpdateMeetingStatus writes a new status, optionally flipping the
// reminderSent flag in the same update.
func (s *SchedulerService) UpdateMeetingStatus(id uuid.UUID, status string, reminderSent *bool) error {
	updates := map[string]interface{}{"status": status}
	if reminderSent != nil {
		updates["reminder_sent"] = *reminderSent
	}
	return s.db.Model(&models.Meeting{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteMeeting removes a meeting and cancels its pending timer, if any.
func (s *SchedulerService) DeleteMeeting(id uuid.UUID) error {
	s.CancelReminder(id)

	result := s.db.Where("id = ?", id).Delete(&models.Meeting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CancelReminder stops and forgets a pending timer.
func (s *SchedulerService) CancelReminder(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, exists := s.activeReminders[id]; exists {
		timer.Stop()
		delete(s.activeReminders, id)
	}
}

// RestorePendingReminders re-arms timers for every scheduled, unreminded
// meeting. The timer set is a cache; the store is the source of truth.
func (s *SchedulerService) RestorePendingReminders() error {
	pending, err := s.GetPendingMeetings()
	if err != nil {
		return fmt.Errorf("restore pending reminders: %w", err)
	}

	log.Printf("Restoring %d pending reminder(s)...", len(pending))
	for i := range pending {
		s.ScheduleReminder(&pending[i])
	}
	return nil
}

// Start begins the check and sync loops, restores pending reminders, and
// runs one immediate check. It is a no-op if already running.
func (s *SchedulerService) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		log.Println("Scheduler is already running")
		return
	}

	c := cron.New()
	checkSpec := fmt.Sprintf("*/%d * * * *", s.checkIntervalMin)
	syncSpec := fmt.Sprintf("*/%d * * * *", s.syncIntervalMin)
	if _, err := c.AddFunc(checkSpec, s.CheckAndSendMessages); err != nil {
		s.mu.Unlock()
		log.Printf("Failed to schedule check loop: %v", err)
		return
	}
	if _, err := c.AddFunc(syncSpec, s.SyncSheet); err != nil {
		s.mu.Unlock()
		log.Printf("Failed to schedule sync loop: %v", err)
		return
	}
	c.Start()

	s.cron = c
	s.isRunning = true
	checkMin, syncMin := s.checkIntervalMin, s.syncIntervalMin
	s.mu.Unlock()

	log.Printf("Scheduler started (check: every %dmin, sync: every %dmin)", checkMin, syncMin)

	if err := s.RestorePendingReminders(); err != nil {
		log.Printf("Error restoring pending reminders: %v", err)
	}

	go s.CheckAndSendMessages()
}

// Stop cancels the periodic loops. Per-meeting reminder timers keep
// running independently of the loop lifecycle.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		log.Println("Scheduler is not running")
		return
	}
	c := s.cron
	s.cron = nil
	s.isRunning = false
	s.mu.Unlock()

	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

// Drain blocks until in-flight reminder dispatches finish. Call after
// Stop during shutdown so sends are not abandoned mid-flight.
func (s *SchedulerService) Drain() {
	s.wg.Wait()
}

// UpdateIntervals changes the loop cadence and re-arms the loops when
// running. Non-positive values leave the current interval unchanged.
func (s *SchedulerService) UpdateIntervals(checkMin, syncMin int) {
	s.mu.Lock()
	if checkMin > 0 {
		s.checkIntervalMin = checkMin
	}
	if syncMin > 0 {
		s.syncIntervalMin = syncMin
	}
	running := s.isRunning
	s.mu.Unlock()

	if running {
		s.Stop()
		s.Start()
	}
}

// CheckAndSendMessages is one poller check cycle over the sheet queue.
// Per-message failures are contained so one bad row cannot abort the batch.
func (s *SchedulerService) CheckAndSendMessages() {
	now := time.Now()
	s.mu.Lock()
	s.lastCheck = &now
	s.mu.Unlock()

	if s.sheets == nil {
		log.Println("Sheet source not configured, skipping check")
		return
	}

	log.Println("Checking for messages to send...")
	pending, err := s.sheets.GetPendingMessages()
	if err != nil {
		log.Printf("Error fetching pending messages: %v", err)
		return
	}
	if len(pending) == 0 {
		log.Println("No messages to send at this time")
		return
	}

	log.Printf("Found %d message(s) to send", len(pending))
	for _, msg := range pending {
		s.processSheetMessage(msg)
	}
}

func (s *SchedulerService) processSheetMessage(msg SheetMessage) {
	if !utils.ValidatePhone(msg.Phone) {
		log.Printf("Invalid phone number in sheet row %d: %q", msg.RowIndex, msg.Phone)
		s.markSheetRow(msg.RowIndex, "Failed")
		s.addFailed(1)
		return
	}

	body := FormatMessage(sheetMessageTemplate, map[string]string{
		"teacher_name": msg.Teacher,
		"student_name": msg.Student,
		"meeting_date": msg.Date,
		"meeting_time": msg.Time,
	})

	if err := s.messenger.SendMessageWithRetry(msg.Phone, body, maxSendAttempts); err != nil {
		log.Printf("Failed to send sheet message to %s: %v", msg.Phone, err)
		s.markSheetRow(msg.RowIndex, "Failed")
		s.addFailed(1)
		return
	}

	s.markSheetRow(msg.RowIndex, "Sent")
	s.addSent(1)
}

func (s *SchedulerService) markSheetRow(rowIndex int64, status string) {
	if err := s.sheets.UpdateRowStatus(rowIndex, status, time.Now()); err != nil {
		log.Printf("Failed to update sheet row %d: %v", rowIndex, err)
	}
}

// SyncSheet performs a read-through refresh of the sheet source.
func (s *SchedulerService) SyncSheet() {
	now := time.Now()
	s.mu.Lock()
	s.lastSync = &now
	s.mu.Unlock()

	if s.sheets == nil {
		log.Println("Sheet source not configured, skipping sync")
		return
	}

	if err := s.sheets.ReadSheet(); err != nil {
		log.Printf("Error syncing sheet: %v", err)
		return
	}
	log.Println("Sheet sync completed")
}

// TriggerCheck manually runs one check cycle.
func (s *SchedulerService) TriggerCheck() {
	log.Println("Manual trigger: checking messages...")
	s.CheckAndSendMessages()
}

// TriggerSync manually runs one sheet sync.
func (s *SchedulerService) TriggerSync() {
	log.Println("Manual trigger: syncing sheet...")
	s.SyncSheet()
}

// GetStatus returns a snapshot of the scheduler state.
func (s *SchedulerService) GetStatus() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		IsRunning:      s.isRunning,
		LastSync:       s.lastSync,
		LastCheck:      s.lastCheck,
		MessagesSent:   s.messagesSent,
		MessagesFailed: s.messagesFailed,
		CheckInterval:  fmt.Sprintf("%d minute(s)", s.checkIntervalMin),
		SyncInterval:   fmt.Sprintf("%d minute(s)", s.syncIntervalMin),
	}
}

// ResetStats zeroes the sent/failed counters.
func (s *SchedulerService) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesSent = 0
	s.messagesFailed = 0
}

// GetMeetingStats returns store-level counts for the dashboard.
func (s *SchedulerService) GetMeetingStats() (MeetingStats, error) {
	var stats MeetingStats
	model := s.db.Model(&models.Meeting{})
	if err := model.Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	counts := map[string]*int64{
		models.MeetingStatusScheduled: &stats.Scheduled,
		models.MeetingStatusReminded:  &stats.Reminded,
		models.MeetingStatusCompleted: &stats.Completed,
	}
	for status, dst := range counts {
		if err := s.db.Model(&models.Meeting{}).Where("status = ?", status).Count(dst).Error; err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (s *SchedulerService) addSent(n int) {
	s.mu.Lock()
	s.messagesSent += n
	s.mu.Unlock()
}

func (s *SchedulerService) addFailed(n int) {
	s.mu.Lock()
	s.messagesFailed += n
	s.mu.Unlock()
}

// pendingTimerCount reports how many reminder timers are armed.
func (s *SchedulerService) pendingTimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeReminders)
}

// HasPendingReminder reports whether a timer is armed for the meeting.
func (s *SchedulerService) HasPendingReminder(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.activeReminders[id]
	return exists
}
