package http

import (
	"stylist_server/core/domain"
	"stylist_server/core/port/in"
	"stylist_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler serves the conversational stylist.
type ChatHandler struct {
	chat in.ChatUseCase
}

func NewChatHandler(chat in.ChatUseCase) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register mounts the chat routes. limit guards both routes; optionalAuth
// identifies the caller for pushes when a token is sent.
func (h *ChatHandler) Register(router fiber.Router, optionalAuth, limit fiber.Handler) {
	ai := router.Group("/ai")
	ai.Post("/chat", optionalAuth, limit, h.Chat)
	ai.Post("/complements", optionalAuth, limit, h.Complements)
}

type chatRequest struct {
	Query       string            `json:"query"`
	ChatHistory []domain.ChatTurn `json:"chatHistory"`
}

func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return AppErrorResponse(c, apperr.BadRequest("invalid request body"))
	}

	resp, err := h.chat.InterpretAndCompose(c.UserContext(), req.Query, req.ChatHistory)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return c.JSON(resp)
}

func (h *ChatHandler) Complements(c *fiber.Ctx) error {
	var req domain.ComplementRequest
	if err := c.BodyParser(&req); err != nil {
		return AppErrorResponse(c, apperr.BadRequest("invalid request body"))
	}

	result, err := h.chat.Complements(c.UserContext(), OptionalUserID(c), req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return c.JSON(result)
}
