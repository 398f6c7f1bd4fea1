// controllers/scheduler.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"meetremind-backend/services"
	"meetremind-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleMeetingInput defines the expected JSON structure
type ScheduleMeetingInput struct {
	TeacherID    string `json:"teacherId"`
	TeacherName  string `json:"teacherName" binding:"required"`
	TeacherPhone string `json:"teacherPhone" binding:"required"`
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName" binding:"required"`
	StudentPhone string `json:"studentPhone" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
	ReminderTime int    `json:"reminderTime"`
}

type SchedulerController struct {
	Service  *services.SchedulerService
	WhatsApp *services.WhatsAppService
}

// ScheduleMeeting creates a meeting and arms its reminder
func (sc *SchedulerController) ScheduleMeeting(c *gin.Context) {
	var input ScheduleMeetingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	meeting, err := sc.Service.AddMeeting(services.AddMeetingInput{
		TeacherID:       input.TeacherID,
		TeacherName:     input.TeacherName,
		TeacherPhone:    input.TeacherPhone,
		StudentID:       input.StudentID,
		StudentName:     input.StudentName,
		StudentPhone:    input.StudentPhone,
		Date:            input.Date,
		Time:            input.Time,
		ReminderMinutes: input.ReminderTime,
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Failed to schedule meeting: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "meeting": meeting})
}

// GetMeetings returns all meetings, newest first
func (sc *SchedulerController) GetMeetings(c *gin.Context) {
	meetings, err := sc.Service.GetMeetings()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch meetings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "meetings": meetings})
}

// DeleteMeeting removes a meeting and cancels its pending reminder
func (sc *SchedulerController) DeleteMeeting(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid meeting ID format")
		return
	}

	if err := sc.Service.DeleteMeeting(meetingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Meeting not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete meeting")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Meeting deleted successfully"})
}

// GetSchedulerStatus returns a read-only scheduler snapshot
func (sc *SchedulerController) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sc.Service.GetStatus()})
}

// TriggerCheck manually runs one message check cycle
func (sc *SchedulerController) TriggerCheck(c *gin.Context) {
	sc.Service.TriggerCheck()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message check triggered successfully",
		"data":    gin.H{"triggeredAt": time.Now().Format(time.RFC3339)},
	})
}

// TriggerSync manually runs one sheet sync
func (sc *SchedulerController) TriggerSync(c *gin.Context) {
	sc.Service.TriggerSync()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Sheet sync triggered successfully",
		"data":    gin.H{"triggeredAt": time.Now().Format(time.RFC3339)},
	})
}

// ResetStats zeroes the sent/failed counters
func (sc *SchedulerController) ResetStats(c *gin.Context) {
	sc.Service.ResetStats()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Statistics reset"})
}

// GetMessageLogs returns recent send attempts
func (sc *SchedulerController) GetMessageLogs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	logs := sc.WhatsApp.GetMessageLogs(limit)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": logs, "count": len(logs)})
}

// ClearMessageLogs empties the in-memory attempt log
func (sc *SchedulerController) ClearMessageLogs(c *gin.Context) {
	sc.WhatsApp.ClearMessageLogs()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message logs cleared successfully"})
}
