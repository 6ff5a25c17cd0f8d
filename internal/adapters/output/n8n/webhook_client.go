package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"n8n-chat-relay/configs"
	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure WebhookClientAdapter implements RelayGateway interface
var _ output.RelayGateway = (*WebhookClientAdapter)(nil)

const (
	userAgent     = "n8n-chat-relay/1.0"
	payloadSource = "n8n-chat-relay"

	// FallbackReply is returned when the webhook answers with an empty body
	FallbackReply = "I apologize, but I didn't receive a proper response. Please try again."
)

// Retry configuration defaults
const (
	defaultMaxRetryAttempts = 3
	defaultInitialDelay     = 500 * time.Millisecond
	defaultMaxDelay         = 5 * time.Second
	backoffMultiplier       = 2
)

// replyFields are the response fields that may carry the reply text, in priority order
var replyFields = []string{"response", "message", "text", "output"}

// WebhookClientAdapter struct - Output adapter for n8n webhooks
type WebhookClientAdapter struct {
	httpClient     *http.Client
	webhookURL     string
	chatWebhookURL string
	timeout        time.Duration

	maxRetryAttempts int
	initialDelay     time.Duration
	maxDelay         time.Duration
}

// NewWebhookClientAdapter func - Creates new n8n webhook client adapter
func NewWebhookClientAdapter(config configs.N8n) (*WebhookClientAdapter, error) {
	webhookURL := strings.TrimSpace(config.WebhookURL)
	chatWebhookURL := strings.TrimSpace(config.ChatWebhookURL)
	if chatWebhookURL == "" {
		chatWebhookURL = webhookURL
	}
	if webhookURL == "" {
		webhookURL = chatWebhookURL
	}
	if chatWebhookURL == "" {
		return nil, errors.New("n8n webhook url is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout <= 0 {
		timeout = 30 * time.Second
	}

	maxRetryAttempts := config.MaxRetries
	if maxRetryAttempts <= 0 {
		maxRetryAttempts = defaultMaxRetryAttempts
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	adapter := &WebhookClientAdapter{
		httpClient:       httpClient,
		webhookURL:       webhookURL,
		chatWebhookURL:   chatWebhookURL,
		timeout:          timeout,
		maxRetryAttempts: maxRetryAttempts,
		initialDelay:     defaultInitialDelay,
		maxDelay:         defaultMaxDelay,
	}

	logrus.Infof("n8n webhook client initialized, webhook: %s, chat webhook: %s, timeout: %v", webhookURL, chatWebhookURL, timeout)

	return adapter, nil
}

// ChatWebhookURL returns the chat webhook URL
func (a *WebhookClientAdapter) ChatWebhookURL() string {
	return a.chatWebhookURL
}

// TriggerWebhookURL returns the primary webhook URL
func (a *WebhookClientAdapter) TriggerWebhookURL() string {
	return a.webhookURL
}

// retryWithBackoff executes an operation with exponential backoff retry logic
func (a *WebhookClientAdapter) retryWithBackoff(ctx context.Context, operation func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	delay := a.initialDelay

	for attempt := 1; attempt <= a.maxRetryAttempts; attempt++ {
		resp, err := operation()

		if err != nil {
			if !a.isTransientError(err, 0) {
				return nil, err
			}
			lastErr = err
			logrus.Warnf("n8n request attempt %d/%d failed with error: %v, retrying in %v", attempt, a.maxRetryAttempts, err, delay)
		} else if resp != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			// Don't retry on 4xx client errors
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				return nil, fmt.Errorf("%w: status %d - %s", domain.ErrInvalidRequest, resp.StatusCode, string(body))
			}

			if a.isTransientError(nil, resp.StatusCode) {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				lastErr = fmt.Errorf("server error: status %d - %s", resp.StatusCode, string(body))
				logrus.Warnf("n8n request attempt %d/%d failed with status %d, retrying in %v", attempt, a.maxRetryAttempts, resp.StatusCode, delay)
			} else {
				return resp, nil
			}
		}

		if attempt < a.maxRetryAttempts {
			select {
			case <-ctx.Done():
				return nil, a.contextError(ctx.Err())
			case <-time.After(delay):
			}

			delay = delay * backoffMultiplier
			if delay > a.maxDelay {
				delay = a.maxDelay
			}
		}
	}

	if lastErr != nil {
		if isTimeout(lastErr) {
			return nil, fmt.Errorf("%w: %v after %d attempts", domain.ErrRelayTimeout, lastErr, a.maxRetryAttempts)
		}
		return nil, fmt.Errorf("%w: %v after %d attempts", domain.ErrRelayUnavailable, lastErr, a.maxRetryAttempts)
	}
	return nil, fmt.Errorf("%w: max retries exceeded", domain.ErrRelayUnavailable)
}

func (a *WebhookClientAdapter) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrRelayTimeout, err)
	}
	return fmt.Errorf("%w: context cancelled: %v", domain.ErrRelayUnavailable, err)
}

// isTimeout reports whether err came from a deadline rather than a refused connection
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isTransientError determines if an error or status code is transient and should be retried
func (a *WebhookClientAdapter) isTransientError(err error, statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}

	if statusCode >= 400 && statusCode < 500 {
		return false
	}

	if err == nil {
		return false
	}

	if isTimeout(err) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// post marshals payload once and sends it with retries
func (a *WebhookClientAdapter) post(ctx context.Context, url string, payload interface{}, headers map[string]string) (*http.Response, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return a.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", userAgent)
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return a.httpClient.Do(req)
	})
}

// Relay sends a chat turn with its context window to the chat webhook
func (a *WebhookClientAdapter) Relay(ctx context.Context, request domain.RelayRequest) (string, error) {
	history := make([]chatTurnAPI, len(request.Context))
	for i, turn := range request.Context {
		history[i] = chatTurnAPI{
			Role:      string(turn.Role),
			Content:   turn.Content,
			Timestamp: turn.CreatedAt.Format(time.RFC3339),
		}
	}

	userID := request.UserID
	if userID == "" {
		userID = request.OwnerID
	}

	payload := chatPayloadAPI{
		Type: "chat",
		Chat: chatDataAPI{
			Message:        request.Message,
			ConversationID: request.ConversationID,
			UserID:         userID,
			MessageHistory: history,
		},
		Metadata: metadataAPI{
			RequestID:    request.RequestID,
			Timestamp:    time.Now().Format(time.RFC3339),
			Source:       payloadSource,
			MessageCount: &request.MessageCount,
			SessionAge:   &request.SessionAgeMinutes,
		},
	}

	startTime := time.Now()
	resp, err := a.post(ctx, a.chatWebhookURL, payload, map[string]string{
		"X-Request-ID":   request.RequestID,
		"X-Request-Type": "chat",
	})
	if err != nil {
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read chat response: %v", domain.ErrRelayUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":      request.RequestID,
		"conversation_id": request.ConversationID,
		"status":          resp.StatusCode,
		"duration_ms":     time.Since(startTime).Milliseconds(),
	}).Info("n8n chat response received")

	return ExtractReply(body, resp.Header.Get("Content-Type"))
}

// Trigger forwards a generic payload to the primary webhook
func (a *WebhookClientAdapter) Trigger(ctx context.Context, request domain.TriggerRequest) (interface{}, error) {
	payload := triggerPayloadAPI{
		Data: triggerDataAPI{
			Name:    request.Name,
			Email:   request.Email,
			Message: request.Message,
			Data:    request.Data,
		},
		Metadata: metadataAPI{
			RequestID: request.RequestID,
			Timestamp: time.Now().Format(time.RFC3339),
			Source:    payloadSource,
		},
	}

	startTime := time.Now()
	resp, err := a.post(ctx, a.webhookURL, payload, map[string]string{
		"X-Request-ID": request.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to trigger webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read trigger response: %v", domain.ErrRelayUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  request.RequestID,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("n8n webhook response received")

	return decodeBody(body), nil
}

// PingChat sends a connection test payload to the chat webhook
func (a *WebhookClientAdapter) PingChat(ctx context.Context) bool {
	return a.ping(ctx, a.chatWebhookURL, "chat-connection-test")
}

// PingTrigger sends a connection test payload to the primary webhook
func (a *WebhookClientAdapter) PingTrigger(ctx context.Context) bool {
	return a.ping(ctx, a.webhookURL, "connection-test")
}

// ping is a single unretried POST; any 2xx counts as reachable
func (a *WebhookClientAdapter) ping(ctx context.Context, url, kind string) bool {
	bodyBytes, err := json.Marshal(map[string]interface{}{
		"test":      true,
		"type":      kind,
		"message":   "Connection test from " + payloadSource,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		logrus.Errorf("Connection test request could not be built: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Type", "test")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("Connection test to %s failed: %v", url, err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	logrus.Debugf("Connection test result: %v, status: %d", ok, resp.StatusCode)
	return ok
}

// ExtractReply turns a loosely-typed webhook response body into reply text.
// Objects are searched for the known reply fields, arrays use their first
// element, bare strings are returned as-is. A body that claims to be JSON but
// does not parse is reported as a malformed response.
func ExtractReply(body []byte, contentType string) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return FallbackReply, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		if strings.Contains(strings.ToLower(contentType), "json") {
			return "", fmt.Errorf("%w: malformed response: %v", domain.ErrRelayUnavailable, err)
		}
		return string(trimmed), nil
	}

	return replyFromValue(decoded, string(trimmed)), nil
}

func replyFromValue(value interface{}, raw string) string {
	switch v := value.(type) {
	case nil:
		return FallbackReply
	case string:
		return v
	case map[string]interface{}:
		for _, field := range replyFields {
			if candidate, ok := v[field]; ok && candidate != nil {
				return stringify(candidate)
			}
		}
		return raw
	case []interface{}:
		if len(v) == 0 {
			return raw
		}
		first, err := json.Marshal(v[0])
		if err != nil {
			return raw
		}
		return replyFromValue(v[0], string(first))
	default:
		return stringify(v)
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}, []interface{}:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}

// decodeBody returns the JSON value of body, the raw text when it is not JSON, or nil when empty
func decodeBody(body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed)
	}
	return decoded
}

// API request structures for the n8n webhooks

type chatTurnAPI struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type chatDataAPI struct {
	Message        string        `json:"message"`
	ConversationID string        `json:"conversationId"`
	UserID         string        `json:"userId"`
	MessageHistory []chatTurnAPI `json:"messageHistory"`
}

type metadataAPI struct {
	RequestID    string `json:"requestId"`
	Timestamp    string `json:"timestamp"`
	Source       string `json:"source"`
	MessageCount *int   `json:"messageCount,omitempty"`
	SessionAge   *int64 `json:"sessionAge,omitempty"`
}

type chatPayloadAPI struct {
	Type     string      `json:"type"`
	Chat     chatDataAPI `json:"chat"`
	Metadata metadataAPI `json:"metadata"`
}

type triggerDataAPI struct {
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type triggerPayloadAPI struct {
	Data     triggerDataAPI `json:"data"`
	Metadata metadataAPI    `json:"metadata"`
}
