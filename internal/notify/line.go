// Package notify delivers pipeline outcome messages to an external channel.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"marketledger/internal/logger"
)

// lineNotifyURL is the LINE Notify message endpoint.
const lineNotifyURL = "https://notify-api.line.me/api/notify"

// LineNotifier sends a single text message per call to LINE Notify.
// Delivery is fire-and-forget from the pipeline's perspective; the caller
// logs a returned error but never escalates it.
type LineNotifier struct {
	token      string
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewLineNotifier creates a LINE Notify client using the given access token.
func NewLineNotifier(token string, httpClient *http.Client) *LineNotifier {
	return &LineNotifier{token: token, httpClient: httpClient, baseURL: lineNotifyURL}
}

// Notify posts one message to the notification channel.
func (n *LineNotifier) Notify(ctx context.Context, message string) error {
	form := url.Values{"message": {message}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building notify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Get().Infow("notification sent", "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification channel returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes outcome messages to the application log only. Used
// when no notification channel token is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the message and always succeeds.
func (n *LogNotifier) Notify(_ context.Context, message string) error {
	logger.Get().Infow("pipeline outcome", "message", message)
	return nil
}
