// controllers/webhook.go
package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// VerifyWebhook answers the WhatsApp webhook verification handshake by
// echoing hub.challenge when the verify token matches.
func VerifyWebhook(c *gin.Context) {
	verifyToken := os.Getenv("WHATSAPP_WEBHOOK_VERIFY_TOKEN")

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	if mode == "subscribe" && token == verifyToken {
		log.Println("Webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}

	c.Status(http.StatusForbidden)
}

// ReceiveWebhook accepts delivery/status events from the messaging
// provider. Events are logged and acknowledged; nothing downstream
// consumes them yet.
func ReceiveWebhook(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	log.Printf("Received webhook event: %v", payload)
	c.Status(http.StatusOK)
}
