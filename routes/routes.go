package routes

import (
	"os"
	"strings"

	"meetremind-backend/config"
	"meetremind-backend/controllers"
	"meetremind-backend/services"
	"meetremind-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(sched *services.SchedulerService, whatsapp *services.WhatsAppService, sheets *services.SheetsService) *gin.Engine {
	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		allowedOrigins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	schedulerController := &controllers.SchedulerController{Service: sched, WhatsApp: whatsapp}
	dashboardController := &controllers.DashboardController{Service: sched, WhatsApp: whatsapp}
	settingsController := &controllers.SettingsController{Service: sched}
	sheetController := &controllers.SheetController{Service: sched, Sheets: sheets}

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	// Webhook endpoints are called by the messaging provider, not the UI
	r.GET("/webhook", controllers.VerifyWebhook)
	r.POST("/webhook", controllers.ReceiveWebhook)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		scheduler := api.Group("/scheduler")
		{
			scheduler.POST("/schedule", schedulerController.ScheduleMeeting)
			scheduler.GET("/meetings", schedulerController.GetMeetings)
			scheduler.DELETE("/meetings/:id", schedulerController.DeleteMeeting)
			scheduler.GET("/status", schedulerController.GetSchedulerStatus)
			scheduler.POST("/trigger-check", schedulerController.TriggerCheck)
			scheduler.POST("/trigger-sync", schedulerController.TriggerSync)
			scheduler.POST("/reset-stats", schedulerController.ResetStats)
			scheduler.GET("/logs", schedulerController.GetMessageLogs)
			scheduler.DELETE("/logs", schedulerController.ClearMessageLogs)
		}

		api.GET("/dashboard", dashboardController.GetDashboardStats)

		sheet := api.Group("/sheet")
		{
			sheet.GET("/data", sheetController.GetSheetData)
			sheet.POST("/sync", sheetController.SyncSheet)
		}

		contacts := api.Group("/contacts")
		{
			contacts.POST("/upload", controllers.UploadContacts)
			contacts.GET("/teachers", controllers.GetTeachers)
			contacts.GET("/students", controllers.GetStudents)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", settingsController.GetSettings)
			settings.PUT("", settingsController.UpdateSettings)
		}
	}

	return r
}
