// controllers/sheet.go
package controllers

import (
	"net/http"

	"meetremind-backend/services"
	"meetremind-backend/utils"

	"github.com/gin-gonic/gin"
)

type SheetController struct {
	Service *services.SchedulerService
	Sheets  *services.SheetsService
}

// GetSheetData returns every row from the reminder sheet
func (sc *SheetController) GetSheetData(c *gin.Context) {
	if sc.Sheets == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Google Sheets not configured")
		return
	}

	rows, err := sc.Sheets.GetAllRows()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read sheet")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows, "count": len(rows)})
}

// SyncSheet triggers a sheet refresh
func (sc *SheetController) SyncSheet(c *gin.Context) {
	if sc.Sheets == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Google Sheets not configured")
		return
	}

	sc.Service.TriggerSync()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Sheet sync initiated"})
}
