package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptoTradeJournal/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Client implements the ports.Notifier interface against the Telegram Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the Telegram adapter.
type Config struct {
	BaseURL        string // Override for tests; defaults to the public API
	BotToken       string
	RequestTimeout time.Duration
	Logger         ports.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	MessageID int64  `json:"message_id,omitempty"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// New creates a new Telegram notifier.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for Telegram client", ports.ErrConfigurationError)
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("%w: Telegram bot token is required", ports.ErrConfigurationError)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.BotToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// SendMessage delivers text as a new message and returns the assigned
// message identifier.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, markdown bool) (int64, error) {
	payload := sendMessageRequest{ChatID: chatID, Text: text}
	if markdown {
		payload.ParseMode = "Markdown"
	}
	result, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrSendFailed, err)
	}
	return result.Result.MessageID, nil
}

// EditMessage replaces the text of a previously sent message. Telegram
// rejects edits of deleted or too-old messages; callers fall back to a new
// send in that case.
func (c *Client) EditMessage(ctx context.Context, chatID string, messageID int64, text string, markdown bool) error {
	payload := sendMessageRequest{ChatID: chatID, MessageID: messageID, Text: text}
	if markdown {
		payload.ParseMode = "Markdown"
	}
	if _, err := c.call(ctx, "editMessageText", payload); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrEditFailed, err)
	}
	return nil
}

// call posts a JSON payload to a bot method and decodes the API envelope.
func (c *Client) call(ctx context.Context, method string, payload sendMessageRequest) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("telegram: unparseable %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		c.logger.Debug(ctx, "Telegram API rejected call", map[string]interface{}{
			"method":      method,
			"status":      resp.StatusCode,
			"description": apiResp.Description,
		})
		return nil, fmt.Errorf("telegram: %s rejected (status %d): %s", method, resp.StatusCode, apiResp.Description)
	}
	return &apiResp, nil
}
