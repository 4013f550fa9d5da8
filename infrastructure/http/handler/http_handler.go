package handler

import (
	"convo-hub/auth"
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/infrastructure/http/dto"
	"convo-hub/infrastructure/http/response"
	"convo-hub/services"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Handler serves the request/response operations. Every route requires a
// session; the websocket subscriptions are served by the ws package.
type Handler struct {
	conversations services.IConversationService
	messages      services.IMessageService
	users         services.IUserService
}

func NewHandler(conversations services.IConversationService,
	messages services.IMessageService, users services.IUserService) *Handler {
	return &Handler{conversations: conversations, messages: messages, users: users}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, requireSession gin.HandlerFunc) {
	api := r.Group("/api/v1", requireSession)
	{
		conversations := api.Group("/conversations")
		{
			conversations.GET("", h.Conversations)
			conversations.POST("", h.CreateConversation)
			conversations.POST("/:id/read", h.MarkConversationAsRead)
			conversations.PUT("/:id/participants", h.UpdateConversation)
			conversations.DELETE("/:id", h.DeleteConversation)
			conversations.GET("/:id/messages", h.Messages)
			conversations.POST("/:id/messages", h.CreateMessage)
		}
		api.GET("/users/search", h.SearchUsers)
	}
}

func (h *Handler) Conversations(c *gin.Context) {
	conversations, err := h.conversations.Conversations(auth.SessionFrom(c), domain.ListConversationsQuery{})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto.FromConversations(conversations))
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req dto.ParticipantsRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.conversations.CreateConversation(c.Request.Context(), auth.SessionFrom(c),
		domain.CreateConversationCommand{ParticipantIDs: req.ParticipantIDs})
	if err != nil {
		response.Fail(c, err)
		return
	}
	body := dto.CreateConversationResponse{ConversationID: result.ConversationID, IsCreated: result.IsCreated}
	if result.IsCreated {
		response.Created(c, body)
		return
	}
	response.Success(c, body)
}

func (h *Handler) MarkConversationAsRead(c *gin.Context) {
	err := h.conversations.MarkConversationAsRead(c.Request.Context(), auth.SessionFrom(c),
		domain.MarkConversationAsReadCommand{ConversationID: c.Param("id")})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, true)
}

func (h *Handler) UpdateConversation(c *gin.Context) {
	var req dto.ParticipantsRequest
	if !bind(c, &req) {
		return
	}
	conversation, err := h.conversations.UpdateConversation(c.Request.Context(), auth.SessionFrom(c),
		domain.UpdateConversationCommand{ConversationID: c.Param("id"), ParticipantIDs: req.ParticipantIDs})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto.FromConversation(conversation))
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	err := h.conversations.DeleteConversation(c.Request.Context(), auth.SessionFrom(c),
		domain.DeleteConversationCommand{ConversationID: c.Param("id")})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, true)
}

func (h *Handler) Messages(c *gin.Context) {
	messages, err := h.messages.Messages(auth.SessionFrom(c), domain.GetMessagesQuery{ConversationID: c.Param("id")})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto.FromMessages(messages))
}

func (h *Handler) CreateMessage(c *gin.Context) {
	var req dto.CreateMessageRequest
	if !bind(c, &req) {
		return
	}
	message, err := h.messages.CreateMessage(c.Request.Context(), auth.SessionFrom(c),
		domain.CreateMessageCommand{ConversationID: c.Param("id"), Content: req.Content})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, dto.FromMessage(message))
}

func (h *Handler) SearchUsers(c *gin.Context) {
	users, err := h.users.SearchUsers(auth.SessionFrom(c), domain.SearchUsersQuery{Name: c.Query("name")})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto.FromUsers(users))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err))
		return false
	}
	return true
}
