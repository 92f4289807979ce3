package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

type pushSender interface {
	Send(ctx context.Context, token string, notifType string, title string, body string, data map[string]any) error
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         userReader
	push             pushSender
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo userReader,
	push pushSender,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		push:             push,
	}
}

// Notify stores the notification and attempts a push. The push is best-effort:
// its failure is logged here and does not surface to the caller's flow.
func (s *NotificationService) Notify(ctx context.Context, userID string, notifType string, title string, body string, data map[string]any) error {
	var dataJSON *string
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		str := string(encoded)
		dataJSON = &str
	}

	if err := s.notificationRepo.Create(ctx, &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}); err != nil {
		return err
	}

	s.sendPush(ctx, userID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) NotifyChatMessage(ctx context.Context, recipientID string, senderID string, conversationID string, text string) error {
	return s.Notify(ctx, recipientID, "CHAT_MESSAGE", "New message", text, map[string]any{
		"conversation_id": conversationID,
		"sender_id":       senderID,
	})
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, page int, limit int) ([]models.Notification, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.notificationRepo.ListForUser(ctx, userID, limit, (page-1)*limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationID string) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID)
}

func (s *NotificationService) sendPush(ctx context.Context, userID string, notifType string, title string, body string, data map[string]any) {
	if s.push == nil || s.userRepo == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.FCMToken == nil || *user.FCMToken == "" {
		return
	}
	if err := s.push.Send(ctx, *user.FCMToken, notifType, title, body, data); err != nil {
		log.Printf("push %s to %s: %v", notifType, userID, err)
	}
}
