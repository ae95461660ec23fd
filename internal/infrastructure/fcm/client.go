package fcm

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client wraps Firebase Cloud Messaging for trade alert pushes. Without
// Firebase credentials it degrades to a disabled client.
type Client struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewClient initializes the FCM client from FIREBASE_CREDENTIALS_PATH or
// FIREBASE_CREDENTIALS_JSON.
func NewClient(logger *zap.Logger) (*Client, error) {
	ctx := context.Background()

	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
		if credJSON == "" {
			logger.Warn("no Firebase credentials found, trade alert pushes disabled")
			return &Client{client: nil, logger: logger}, nil
		}

		tmpFile, err := os.CreateTemp("", "firebase-credentials-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		defer tmpFile.Close()

		if _, err := tmpFile.Write([]byte(credJSON)); err != nil {
			return nil, fmt.Errorf("failed to write credentials: %w", err)
		}
		credPath = tmpFile.Name()
	}

	opt := option.WithCredentialsFile(credPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	logger.Info("Firebase Cloud Messaging initialized")
	return &Client{client: client, logger: logger}, nil
}

// SendMulticast sends a notification to multiple device tokens.
func (c *Client) SendMulticast(tokens []string, title, body string, data map[string]string) error {
	if c.client == nil {
		return fmt.Errorf("FCM client not initialized")
	}
	if len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "trade_alerts",
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	ctx := context.Background()
	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast: %w", err)
	}

	c.logger.Debug("trade alert sent",
		zap.Int("success", response.SuccessCount),
		zap.Int("failures", response.FailureCount))
	return nil
}

// IsEnabled returns true if the FCM client is initialized.
func (c *Client) IsEnabled() bool {
	return c != nil && c.client != nil
}
