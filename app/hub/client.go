// Package hub speaks the subscriber side of the PubSubHubbub protocol:
// subscribe and unsubscribe requests are form POSTs to the hub, verified
// asynchronously via a later challenge to our callback endpoint.
package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	ModeSubscribe   = "subscribe"
	ModeUnsubscribe = "unsubscribe"
)

type Client struct {
	httpClient  *http.Client
	callbackUrl string
	verifyToken string
	userAgent   string
}

func NewClient(httpClient *http.Client, callbackUrl, verifyToken, userAgent string) *Client {
	return &Client{
		httpClient:  httpClient,
		callbackUrl: callbackUrl,
		verifyToken: verifyToken,
		userAgent:   userAgent,
	}
}

func (c *Client) Subscribe(ctx context.Context, topic, hubUrl string) error {
	return c.send(ctx, ModeSubscribe, topic, hubUrl)
}

func (c *Client) Unsubscribe(ctx context.Context, topic, hubUrl string) error {
	return c.send(ctx, ModeUnsubscribe, topic, hubUrl)
}

// send posts the mode change to the hub. The hub answers 202 when it has
// queued the request for asynchronous verification; any other status is an
// anomaly worth logging but not a failure of the calling operation.
func (c *Client) send(ctx context.Context, mode, topic, hubUrl string) error {
	form := url.Values{
		"hub.callback":     {c.callbackUrl},
		"hub.mode":         {mode},
		"hub.topic":        {topic},
		"hub.verify":       {"async"},
		"hub.verify_token": {c.verifyToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubUrl, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach hub %s: %w", hubUrl, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		slog.Warn("Hub did not accept request",
			"mode", mode,
			"topic", topic,
			"hub", hubUrl,
			"status", resp.StatusCode,
			"body", string(body))
		return nil
	}

	slog.Info("Hub accepted request", "mode", mode, "topic", topic, "hub", hubUrl)
	return nil
}
