package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetremind-backend/config"
	"meetremind-backend/models"
	"meetremind-backend/routes"
	"meetremind-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Meeting{},
		&models.Contact{},
	)
}

func main() {
	whatsapp := services.NewWhatsAppService()

	var sheetSource services.SheetSource
	sheets, err := services.NewSheetsService(context.Background())
	if err != nil {
		log.Printf("Google Sheets disabled: %v", err)
	} else {
		sheetSource = sheets
	}

	scheduler := services.NewSchedulerService(config.DB, whatsapp, sheetSource)
	scheduler.Start()

	r := routes.SetupRouter(scheduler, whatsapp, sheets)
	printRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	// Stop the poller loops, then wait for in-flight reminder sends
	scheduler.Stop()
	scheduler.Drain()
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
