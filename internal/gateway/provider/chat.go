package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cypher/internal/logger"
)

// 中文说明：
// ChatClient：兼容 OpenAI / xAI 的聊天补全接口（/v1/chat/completions）。
// 裁决模型只走文本，不带图片。

type ChatClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// 简易重试（用于 429/5xx）：若为 0 则默认重试 2 次
	MaxRetries   int
	ExtraHeaders map[string]string
	// Temperature 默认 0.02，裁决要的是可复现而不是创造力
	Temperature *float64
	// ExpectJSON 时带上 response_format=json_object
	ExpectJSON bool
}

// Chat 发送 system+user 两条消息并返回首个 choice 的文本。
func (c *ChatClient) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := normalizeChatURL(c.BaseURL)

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	temperature := 0.02
	if c.Temperature != nil {
		temperature = *c.Temperature
	}
	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"stream":      false,
		"temperature": temperature,
	}
	if c.ExpectJSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	b, _ := json.Marshal(body)
	logger.OracleRequest(c.Model, systemPrompt, userPrompt, string(b))

	httpc := &http.Client{Timeout: timeout}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[oracle] 请求: POST %s, headers=%v", url, c.maskedHeaders())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
		}
		for k, v := range c.ExtraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := httpc.Do(req)
		if err != nil {
			lastErr = err
			break
		}
		if resp.StatusCode/100 == 2 {
			var r struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			derr := json.NewDecoder(resp.Body).Decode(&r)
			resp.Body.Close()
			if derr != nil {
				lastErr = derr
				break
			}
			if len(r.Choices) == 0 {
				lastErr = fmt.Errorf("empty choices")
				break
			}
			out := r.Choices[0].Message.Content
			logger.OracleResponse(c.Model, out)
			return out, nil
		}
		msg := readErrorMessage(resp)
		if retryableStatus(resp.StatusCode) && attempt < maxRetries {
			time.Sleep(retryDelay(resp.Header.Get("Retry-After"), attempt))
			lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
			continue
		}
		lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
		break
	}
	return "", lastErr
}

// normalizeChatURL 规范化 BaseURL：无论配置写到 /v1 还是完整路径，
// 都只追加一次 /chat/completions。
func normalizeChatURL(base string) string {
	url := strings.TrimSpace(base)
	if url == "" {
		url = "https://api.x.ai/v1"
	}
	url = strings.TrimRight(url, "/")
	if strings.HasSuffix(url, "/chat/completions") {
		url = strings.TrimSuffix(url, "/chat/completions")
	}
	return url + "/chat/completions"
}

func (c *ChatClient) maskedHeaders() map[string]string {
	out := map[string]string{"Content-Type": "application/json"}
	if c.APIKey != "" {
		out["Authorization"] = "Bearer " + maskSecret(c.APIKey)
	}
	for k, v := range c.ExtraHeaders {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "key") || strings.Contains(lk, "token") || strings.Contains(lk, "auth") {
			out[k] = maskSecret(v)
			continue
		}
		out[k] = v
	}
	return out
}

// maskSecret 只展示密钥后 4 位。
func maskSecret(v string) string {
	if len(v) > 4 {
		return "****" + v[len(v)-4:]
	}
	return "****"
}

func readErrorMessage(resp *http.Response) string {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eresp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &eresp); err == nil {
		if msg := strings.TrimSpace(eresp.Error.Message); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return resp.Status
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// retryDelay 优先使用 Retry-After，否则指数退避 0.8s 起、8s 封顶。
func retryDelay(retryAfter string, attempt int) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	wait := 800 * time.Millisecond << attempt
	if wait > 8*time.Second {
		wait = 8 * time.Second
	}
	return wait
}
