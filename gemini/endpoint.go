package gemini

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Settings 上游调用所需的全部配置，进程启动时确定，之后只读
type Settings struct {
	Variant    Variant
	Credential string // API key 或 bearer token
	ProjectID  string // 仅 cloud-platform 需要
	Region     string
	Model      string // 为空时使用 Variant 的默认模型
	BaseURL    string // 为空时使用 Variant 的默认地址
	Timeout    time.Duration
}

// Endpoint 一次上游调用的目标地址与认证方式
type Endpoint struct {
	URL    string
	Bearer string
}

func (s Settings) model() string {
	if m := strings.TrimSpace(s.Model); m != "" {
		return m
	}
	return s.Variant.DefaultModel()
}

func (s Settings) region() string {
	if r := strings.TrimSpace(s.Region); r != "" {
		return r
	}
	return DefaultRegion
}

func (s Settings) baseURL() string {
	if b := strings.TrimSpace(s.BaseURL); b != "" {
		return strings.TrimRight(b, "/")
	}
	return s.Variant.DefaultBaseURL(s.region())
}

// Endpoint 检查必需配置并构造上游地址，缺失时返回 *MissingConfigError
func (s Settings) Endpoint() (*Endpoint, error) {
	if strings.TrimSpace(s.Credential) == "" {
		return nil, &MissingConfigError{Name: s.Variant.CredentialEnv()}
	}

	if !s.Variant.UsesBearer() {
		u := s.baseURL() + "/v1beta/models/" + url.PathEscape(s.model()) + ":generateContent"
		return &Endpoint{URL: u + "?key=" + url.QueryEscape(s.Credential)}, nil
	}

	if strings.TrimSpace(s.ProjectID) == "" {
		return nil, &MissingConfigError{Name: EnvProjectID}
	}
	u := s.baseURL() +
		"/v1/projects/" + url.PathEscape(s.ProjectID) +
		"/locations/" + url.PathEscape(s.region()) +
		"/publishers/google/models/" + url.PathEscape(s.model()) + ":generateContent"
	return &Endpoint{URL: u, Bearer: s.Credential}, nil
}

// NewRequest 构造带认证信息的 POST 请求
func (e *Endpoint) NewRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+e.Bearer)
	}
	return req, nil
}

// Redacted 日志用，隐藏 key 参数
func (e *Endpoint) Redacted() string {
	return RedactURL(e.URL)
}

// RedactURL 把查询参数 key 的值替换为 REDACTED
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("key") == "" {
		return raw
	}
	q.Set("key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
