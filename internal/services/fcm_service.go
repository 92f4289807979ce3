package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService delivers push notifications through Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService returns nil when Firebase is not configured; callers treat a
// nil service as "push disabled".
func NewFCMService(serviceAccountPath string) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Printf("fcm: init app: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("fcm: messaging client: %v", err)
		return nil
	}
	return &FCMService{client: client}
}

func (s *FCMService) Send(ctx context.Context, token string, notifType string, title string, body string, data map[string]any) error {
	if s == nil || token == "" {
		return nil
	}

	// FCM data values must be strings.
	dataStr := map[string]string{"type": notifType}
	for key, value := range data {
		switch v := value.(type) {
		case string:
			dataStr[key] = v
		case int:
			dataStr[key] = fmt.Sprintf("%d", v)
		case int64:
			dataStr[key] = fmt.Sprintf("%d", v)
		case float64:
			dataStr[key] = fmt.Sprintf("%g", v)
		default:
			encoded, _ := json.Marshal(v)
			dataStr[key] = string(encoded)
		}
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  dataStr,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	_, err := s.client.Send(ctx, message)
	return err
}
