// Package fcm wraps Firebase Cloud Messaging for document notifications.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates an FCM client using the provided credentials file.
func NewClient(credentialsFile string) (*Client, error) {
	ctx := context.Background()

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

	return &Client{
		messagingClient: messagingClient,
	}, nil
}

// PushMessage is the payload for a device push.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendToDevices multicasts a push to the given device tokens and returns the
// tokens that could not be delivered to, so callers can prune them.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, msg PushMessage) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	var failed []string
	for i, resp := range response.Responses {
		if !resp.Success {
			failed = append(failed, tokens[i])
		}
	}
	return failed, nil
}
