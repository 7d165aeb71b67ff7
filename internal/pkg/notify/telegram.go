package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jHLuno/telfera/app/models"
)

const telegramAPI = "https://api.telegram.org"

// Telegram posts new leads to a chat through the Bot API sendMessage method.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		BaseURL: telegramAPI,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) LeadCreated(ctx context.Context, lead *models.Lead) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     LeadMessage(lead),
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.BaseURL, "/"), t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		// the token is part of the URL and must not end up in logs
		return fmt.Errorf("telegram request failed: %w", redactToken(err, t.Token))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out telegramResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("telegram returned %d with unreadable body", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

func redactToken(err error, token string) error {
	if token == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "***"))
}
