package controllers

import (
	"fmt"
	"net/http"
	"time"

	"meetremind-backend/services"
	"meetremind-backend/utils"

	"github.com/gin-gonic/gin"
)

type DailyMessageCount struct {
	Day    string `json:"day"`
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
}

type HourlyMessageCount struct {
	Time     string `json:"time"`
	Messages int    `json:"messages"`
}

type DashboardController struct {
	Service  *services.SchedulerService
	WhatsApp *services.WhatsAppService
}

// GetDashboardStats aggregates meeting counts, send totals and weekly and
// hourly message activity for the dashboard.
func (dc *DashboardController) GetDashboardStats(c *gin.Context) {
	stats, err := dc.Service.GetMeetingStats()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch meeting stats")
		return
	}

	status := dc.Service.GetStatus()
	logs := dc.WhatsApp.GetMessageLogs(1000)

	sentMessages := 0
	failedMessages := 0
	for _, l := range logs {
		if l.Status == "sent" {
			sentMessages++
		} else {
			failedMessages++
		}
	}

	// Daily activity over the last 7 days
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	recentCount := 0
	weeklyData := make([]DailyMessageCount, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		entry := DailyMessageCount{Day: day.Format("Mon")}
		for _, l := range logs {
			if utils.DaysBetween(l.Timestamp, day) != 0 {
				continue
			}
			if l.Status == "sent" {
				entry.Sent++
			} else {
				entry.Failed++
			}
		}
		weeklyData = append(weeklyData, entry)
	}
	for _, l := range logs {
		if l.Timestamp.After(weekAgo) {
			recentCount++
		}
	}

	// Message volume in 4-hour buckets over the last 24 hours
	hourlyData := make([]HourlyMessageCount, 0, 6)
	for hour := 0; hour < 24; hour += 4 {
		bucket := HourlyMessageCount{Time: fmt.Sprintf("%02d:00", hour)}
		for _, l := range logs {
			h := l.Timestamp.Hour()
			if h >= hour && h < hour+4 {
				bucket.Messages++
			}
		}
		hourlyData = append(hourlyData, bucket)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"stats": gin.H{
				"total":     stats.Total,
				"scheduled": stats.Scheduled,
				"reminded":  stats.Reminded,
				"completed": stats.Completed,
				"sent":      sentMessages,
				"failed":    failedMessages,
			},
			"schedulerStatus": gin.H{
				"running":           status.IsRunning,
				"nextCheck":         status.CheckInterval,
				"lastSync":          status.LastSync,
				"messagesProcessed": status.MessagesSent,
			},
			"weeklyData":       weeklyData,
			"hourlyData":       hourlyData,
			"avgDailyMessages": recentCount / 7,
		},
	})
}
