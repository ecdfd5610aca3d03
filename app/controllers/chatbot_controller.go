package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/parkping/ParkPing/internal/pkg/groq"
)

const chatbotSystemPrompt = `You are the ParkPing help assistant. ParkPing lets vehicle owners ` +
	`put a QR code on their parked vehicle so anyone can reach them without ` +
	`seeing their phone number. Answer questions about registering vehicles, ` +
	`QR codes, privacy masking, calls and subscription plans. Keep answers ` +
	`short and practical. If a question is unrelated to ParkPing, say so politely.`

var chatClient *groq.Client

// InitializeChatbotController wires the chat completion client. Must run
// before the routes are served.
func InitializeChatbotController(client *groq.Client) {
	chatClient = client
}

type chatRequest struct {
	Message string `json:"message"`
}

// HandleChatMessage answers a help question through the chat completion API.
func HandleChatMessage(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return badRequest(c, "message is required")
	}
	if len(msg) > 2000 {
		return badRequest(c, "message is too long")
	}

	reply, err := chatClient.Complete(c.Context(), chatbotSystemPrompt, msg)
	if err != nil {
		log.Printf("chat completion failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "chat_unavailable",
			"message": "The assistant is unavailable right now. Please try again later.",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reply":   reply,
	})
}
