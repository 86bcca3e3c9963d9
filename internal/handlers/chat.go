// internal/handlers/chat.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/collab-backend/internal/services"
	"github.com/javajoker/collab-backend/internal/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// GET /collaborations/:id/messages?cursor=&limit=
func (h *ChatHandler) ListMessages(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	page, err := h.chatService.ListMessages(c.Request.Context(), party, id, c.Query("cursor"), limit)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, page)
}

// POST /collaborations/:id/messages
func (h *ChatHandler) PostMessage(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var req services.PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.chatService.PostMessage(c.Request.Context(), party, id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, message)
}

// POST /collaborations/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	marked, err := h.chatService.MarkRead(c.Request.Context(), party, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"marked_read": marked})
}

// GET /collaborations/conversations
func (h *ChatHandler) Conversations(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	conversations, err := h.chatService.Conversations(c.Request.Context(), party)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, conversations)
}
