package gemini

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bagaking/gemini-proxy/logx"
)

// LoggingTransport 记录每次上游往返，URL 中的 key 和 Authorization 头不会出现在日志里
type LoggingTransport struct {
	Transport http.RoundTripper
	Logger    logx.Logger
}

// NewTransport 上游连接参数
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DisableKeepAlives:   false,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	target := RedactURL(req.URL.String())

	t.Logger.Info(fmt.Sprintf("[Upstream] %s %s", req.Method, target))
	t.Logger.Debug("Upstream request headers:", redactHeaders(req.Header))

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		t.Logger.Debug("Upstream request body:", string(body))
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		t.Logger.Error("Upstream request failed:", target, err)
		return nil, err
	}

	t.Logger.Info(fmt.Sprintf("[Upstream] Status: %d, Duration: %v", resp.StatusCode, time.Since(start)))
	t.Logger.Debug("Upstream response headers:", resp.Header)
	return resp, nil
}

func (t *LoggingTransport) base() http.RoundTripper {
	if t.Transport != nil {
		return t.Transport
	}
	return http.DefaultTransport
}

func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out.Get("Authorization") != "" {
		out.Set("Authorization", "Bearer REDACTED")
	}
	return out
}
