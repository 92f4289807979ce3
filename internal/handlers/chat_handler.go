package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/services"
	chatws "github.com/hlira-mx/ChambaAppBack/internal/websocket"
	"github.com/hlira-mx/ChambaAppBack/pkg/utils"
)

type chatApplicationService interface {
	ListConversations(ctx context.Context, actorID string) ([]models.ConversationSummary, error)
	CreateConversation(ctx context.Context, actorID string, role string, proID string, requestID *string) (*models.Conversation, error)
	ListMessages(ctx context.Context, actorID string, conversationID string, page int, limit int) ([]models.ChatMessage, int, error)
	SendMessage(ctx context.Context, actorID string, conversationID string, content string) (*services.ChatDelivery, error)
}

type chatNotifier interface {
	NotifyChatMessage(ctx context.Context, recipientID string, senderID string, conversationID string, text string) error
}

type ChatHandler struct {
	service       chatApplicationService
	hub           *chatws.Hub
	notifications chatNotifier
	jwtSecret     string
}

type createConversationRequest struct {
	ProID     string  `json:"pro_id"`
	RequestID *string `json:"request_id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub, notifications chatNotifier, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		service:       service,
		hub:           hub,
		notifications: notifications,
		jwtSecret:     jwtSecret,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	conversations, err := h.service.ListConversations(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "CONVERSATION_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}
	role, ok := authRole(c)
	if !ok {
		return respondError(c, fiber.StatusForbidden, "FORBIDDEN")
	}

	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	conversation, err := h.service.CreateConversation(c.Context(), userID, role, req.ProID, req.RequestID)
	if err != nil {
		return mapServiceError(c, err, "USER_NOT_FOUND", "CONVERSATION_UPDATE_FAILED")
	}

	return respondCreated(c, fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, total, err := h.service.ListMessages(c.Context(), userID, c.Params("id"), page, limit)
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "CONVERSATION_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{
		"messages":   messages,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	delivery, err := h.service.SendMessage(c.Context(), userID, c.Params("id"), req.Content)
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "CONVERSATION_UPDATE_FAILED")
	}

	if h.hub != nil {
		h.hub.BroadcastDelivery(delivery)
	}
	if h.notifications != nil {
		if err := h.notifications.NotifyChatMessage(
			c.Context(),
			delivery.RecipientID,
			userID,
			delivery.Message.ConversationID,
			delivery.Message.Content,
		); err != nil {
			log.Printf("chat notification for conversation %s: %v", delivery.Message.ConversationID, err)
		}
	}

	return respondCreated(c, fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return respondError(c, fiber.StatusUpgradeRequired, "WEBSOCKET_UPGRADE_REQUIRED")
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
