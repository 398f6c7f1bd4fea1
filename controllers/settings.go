// controllers/settings.go
package controllers

import (
	"net/http"

	"meetremind-backend/services"
	"meetremind-backend/utils"

	"github.com/gin-gonic/gin"
)

type UpdateSettingsInput struct {
	CheckInterval int `json:"checkInterval" binding:"omitempty,min=1"`
	SyncInterval  int `json:"syncInterval" binding:"omitempty,min=1"`
}

type SettingsController struct {
	Service *services.SchedulerService
}

// GetSettings returns the poller intervals currently in effect
func (sc *SettingsController) GetSettings(c *gin.Context) {
	status := sc.Service.GetStatus()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"checkInterval": status.CheckInterval,
			"syncInterval":  status.SyncInterval,
		},
	})
}

// UpdateSettings changes the poller intervals and re-arms the loops
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var input UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	sc.Service.UpdateIntervals(input.CheckInterval, input.SyncInterval)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Settings updated"})
}
