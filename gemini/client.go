package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bagaking/gemini-proxy/logx"
)

// maxErrorBody 上游错误响应最多读取的字节数
const maxErrorBody = 1 << 20

// Client generateContent 的单次调用封装，不做重试
type Client struct {
	settings Settings
	http     *http.Client
	logger   logx.Logger
}

// NewClient base 为 nil 时使用 NewTransport
func NewClient(s Settings, base http.RoundTripper, logger logx.Logger) *Client {
	if logger == nil {
		logger = logx.NewDefaultLogger()
	}
	if base == nil {
		base = NewTransport()
	}
	return &Client{
		settings: s,
		http: &http.Client{
			Timeout:   s.Timeout,
			Transport: &LoggingTransport{Transport: base, Logger: logger},
		},
		logger: logger,
	}
}

func (c *Client) Settings() Settings {
	return c.settings
}

// Generate 把 message 发往上游并返回回复文本。
// 配置缺失返回 *MissingConfigError 且不发起请求；上游非 2xx 返回 *UpstreamError。
func (c *Client) Generate(ctx context.Context, message string) (string, error) {
	ep, err := c.settings.Endpoint()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(NewGenerateRequest(message))
	if err != nil {
		return "", fmt.Errorf("encode upstream request: %w", err)
	}

	req, err := ep.NewRequest(ctx, body)
	if err != nil {
		return "", fmt.Errorf("build upstream request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error 带完整 URL，错误信息会返回给调用方
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = RedactURL(uerr.URL)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return "", fmt.Errorf("read upstream error body: %w", err)
		}
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	// 只要求是合法 JSON，结构不符时回退到 FallbackReply
	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upstream response: %w", err)
	}
	return ReplyText(out), nil
}
