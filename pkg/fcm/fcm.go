package fcm

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"todo-backend/internal/push"
	pushdomain "todo-backend/internal/push/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const (
	defaultIcon  = "/icon-192.png"
	defaultBadge = "/badge-72.png"
)

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
	appURL          string
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile, appURL string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{
		messagingClient: messagingClient,
		appURL:          appURL,
	}, nil
}

// Send delivers a notification to one device token.
// An unregistered token is reported as 410 so callers drop the subscription.
func (c *Client) Send(ctx context.Context, sub pushdomain.Subscription, n pushdomain.Notification) error {
	message := buildMessage(sub.Token, n, c.appURL)

	response, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		return &push.SendError{StatusCode: statusOf(err), Err: err}
	}

	log.Printf("[FCM] Message sent successfully: %s", response)
	return nil
}

func buildMessage(token string, n pushdomain.Notification, appURL string) *messaging.Message {
	icon := n.Icon
	if icon == "" {
		icon = defaultIcon
	}
	badge := n.Badge
	if badge == "" {
		badge = defaultBadge
	}

	data := map[string]string{
		"tag": n.Tag,
		"url": n.Data.URL,
	}
	if n.Data.TaskID != "" {
		data["taskId"] = n.Data.TaskID
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Icon:  icon,
				Badge: badge,
				Tag:   n.Tag,
			},
		},
	}
	if link := absoluteURL(appURL, n.Data.URL); link != "" {
		message.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: link}
	}
	return message
}

// Webpush links must be absolute https URLs
func absoluteURL(appURL, path string) string {
	if appURL == "" || path == "" {
		return ""
	}
	return appURL + path
}

func statusOf(err error) int {
	if messaging.IsUnregistered(err) || messaging.IsSenderIDMismatch(err) {
		return http.StatusGone
	}
	if resp := errorutils.HTTPResponse(err); resp != nil {
		return resp.StatusCode
	}
	return 0
}
