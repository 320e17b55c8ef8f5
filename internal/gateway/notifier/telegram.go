package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	telegramAPI  = "https://api.telegram.org/bot%s/sendMessage"
	pushAttempts = 3
)

// Telegram 经 Bot API 投递事件通知。
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Push 渲染并投递一条事件通知，失败时退避重试。
func (t *Telegram) Push(msg Message) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram 未配置 bot_token/chat_id")
	}
	payload, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       msg.Render(),
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf(telegramAPI, t.token)

	var lastErr error
	for attempt := 1; attempt <= pushAttempts; attempt++ {
		if lastErr = t.post(url, payload); lastErr == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return lastErr
}

func (t *Telegram) post(url string, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telegram status=%d", resp.StatusCode)
	}
	return nil
}
