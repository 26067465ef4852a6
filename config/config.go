package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bagaking/gemini-proxy/gemini"
	"github.com/bagaking/gemini-proxy/logx"
)

// DefaultPath 默认配置文件，不存在时只使用默认值与环境变量
const DefaultPath = "gemini-proxy.yaml"

// Config 配置结构，启动时加载一次，之后只读
type Config struct {
	Server struct {
		Listen         string `yaml:"listen"`
		Path           string `yaml:"path"` // 代理入口路径
		ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs int    `yaml:"write_timeout_ms"`
		IdleTimeoutMs  int    `yaml:"idle_timeout_ms"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Upstream struct {
		Variant   string `yaml:"variant"`
		APIKey    string `yaml:"api_key"`
		Token     string `yaml:"access_token"`
		ProjectID string `yaml:"project_id"`
		Region    string `yaml:"region"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"base_url"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"upstream"`

	Logging struct {
		Level     string `yaml:"level"`
		AccessLog *bool  `yaml:"access_log"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled *bool  `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load 读取 yaml -> 默认值 -> 环境变量覆盖 -> 校验。
// path 为空或为 DefaultPath 且文件不存在时不报错。
func Load(path string) (*Config, error) {
	var cfg Config
	path = strings.TrimSpace(path)
	if path != "" {
		// #nosec G304 -- config path comes from trusted flag.
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %q: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		default:
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":8899"
	}
	if strings.TrimSpace(cfg.Server.Path) == "" {
		cfg.Server.Path = "/api/gemini"
	}
	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = 30000
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = 90000
	}
	if cfg.Server.IdleTimeoutMs == 0 {
		cfg.Server.IdleTimeoutMs = 120000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if strings.TrimSpace(cfg.Upstream.Variant) == "" {
		cfg.Upstream.Variant = string(gemini.PublicKeyV1)
	}
	if strings.TrimSpace(cfg.Upstream.Region) == "" {
		cfg.Upstream.Region = gemini.DefaultRegion
	}
	if cfg.Upstream.TimeoutMs == 0 {
		cfg.Upstream.TimeoutMs = 60000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.AccessLog == nil {
		cfg.Logging.AccessLog = boolPtr(true)
	}
	if cfg.Metrics.Enabled == nil {
		cfg.Metrics.Enabled = boolPtr(true)
	}
	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(gemini.EnvAPIKey)); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(gemini.EnvAccessToken)); v != "" {
		cfg.Upstream.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(gemini.EnvProjectID)); v != "" {
		cfg.Upstream.ProjectID = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_PATH")); v != "" {
		cfg.Server.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_VARIANT")); v != "" {
		cfg.Upstream.Variant = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_BASE_URL")); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_UPSTREAM_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Upstream.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Server.MaxBodyBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PROXY_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := envBool("GEMINI_PROXY_ACCESS_LOG"); ok {
		cfg.Logging.AccessLog = boolPtr(v)
	}
	if v, ok := envBool("GEMINI_PROXY_METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = boolPtr(v)
	}
}

// Validate 命令行覆盖字段后重新校验
func (c *Config) Validate() error { return validate(c) }

// 凭证缺失不在这里校验，由每个请求返回 500
func validate(cfg *Config) error {
	if _, err := gemini.ParseVariant(cfg.Upstream.Variant); err != nil {
		return fmt.Errorf("upstream.variant: %w", err)
	}
	if !strings.HasPrefix(cfg.Server.Path, "/") {
		return fmt.Errorf("server.path must start with '/': %q", cfg.Server.Path)
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/': %q", cfg.Metrics.Path)
	}
	if cfg.Server.Path == cfg.Metrics.Path || cfg.Server.Path == HealthPath {
		return fmt.Errorf("server.path %q conflicts with a built-in route", cfg.Server.Path)
	}
	if cfg.Server.ReadTimeoutMs < 0 || cfg.Server.WriteTimeoutMs < 0 || cfg.Server.IdleTimeoutMs < 0 {
		return errors.New("server timeouts must be non-negative")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must be non-negative")
	}
	if cfg.Upstream.TimeoutMs < 0 {
		return errors.New("upstream.timeout_ms must be non-negative")
	}
	if _, ok := logx.ParseLevel(cfg.Logging.Level); !ok {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	return nil
}

// HealthPath 健康检查路由
const HealthPath = "/healthz"

// Variant 已校验过的接入方式
func (c *Config) Variant() gemini.Variant {
	v, _ := gemini.ParseVariant(c.Upstream.Variant)
	return v
}

// UpstreamSettings 转换为 gemini.Settings
func (c *Config) UpstreamSettings() gemini.Settings {
	v := c.Variant()
	cred := c.Upstream.APIKey
	if v.UsesBearer() {
		cred = c.Upstream.Token
	}
	return gemini.Settings{
		Variant:    v,
		Credential: cred,
		ProjectID:  c.Upstream.ProjectID,
		Region:     c.Upstream.Region,
		Model:      c.Upstream.Model,
		BaseURL:    c.Upstream.BaseURL,
		Timeout:    ms(c.Upstream.TimeoutMs),
	}
}

func (c *Config) ReadTimeout() time.Duration  { return ms(c.Server.ReadTimeoutMs) }
func (c *Config) WriteTimeout() time.Duration { return ms(c.Server.WriteTimeoutMs) }
func (c *Config) IdleTimeout() time.Duration  { return ms(c.Server.IdleTimeoutMs) }

func (c *Config) LogLevel() logx.Level {
	lv, _ := logx.ParseLevel(c.Logging.Level)
	return lv
}

func (c *Config) AccessLogEnabled() bool {
	return c.Logging.AccessLog == nil || *c.Logging.AccessLog
}

func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func boolPtr(v bool) *bool { return &v }

func envBool(name string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
