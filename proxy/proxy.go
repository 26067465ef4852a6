package proxy

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bagaking/gemini-proxy/config"
	"github.com/bagaking/gemini-proxy/gemini"
	"github.com/bagaking/gemini-proxy/logx"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// Options 可选依赖，零值即默认
type Options struct {
	Logger    logx.Logger
	AccessLog io.Writer         // 默认 stdout
	Transport http.RoundTripper // 默认 gemini.NewTransport()
	Registry  *prometheus.Registry
}

// Proxy Gemini 代理，配置在创建时注入，之后只读
type Proxy struct {
	config      *config.Config
	client      *gemini.Client
	logger      logx.Logger
	accessLog   *log.Logger
	accessColor bool
	metrics     *metrics
}

// NewProxy 创建新的代理实例
func NewProxy(cfg *config.Config, opts Options) *Proxy {
	logger := opts.Logger
	if logger == nil {
		l := logx.NewDefaultLogger()
		l.SetLevel(cfg.LogLevel())
		logger = l
	}

	p := &Proxy{
		config:  cfg,
		client:  gemini.NewClient(cfg.UpstreamSettings(), opts.Transport, logger),
		logger:  logger,
		metrics: newMetrics(opts.Registry),
	}
	if cfg.AccessLogEnabled() {
		out := opts.AccessLog
		if out == nil {
			out = os.Stdout
			p.accessColor = logx.EnableColor()
		}
		p.accessLog = log.New(out, "", 0)
	}
	return p
}

// Engine 构建路由
func (p *Proxy) Engine() *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(p.observe())
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(p.customRecovery())

	r.GET(config.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if p.config.MetricsEnabled() {
		r.GET(p.config.Metrics.Path, gin.WrapH(p.metrics.handler()))
	}

	// 入口不区分方法，OPTIONS 已在 CORS 中间件中处理
	r.Any(p.config.Server.Path, p.handleRequest)

	r.NoRoute(func(c *gin.Context) {
		c.Set(ctxOutcome, outcomeNotFound)
		c.JSON(http.StatusNotFound, ErrorReply{Error: errNotFound})
	})
	return r
}

// corsMiddleware 在任何其他逻辑之前设置 CORS 头，包括错误与预检响应
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.Set(ctxOutcome, outcomePreflight)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// maxRequestIDLen 客户端传入的请求 ID 最大长度
const maxRequestIDLen = 128

// requestIDMiddleware 沿用合法的客户端请求 ID，否则生成新的 UUID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set(ctxRequestID, id)
		c.Next()
	}
}

// validRequestID 非空、不超过 maxRequestIDLen，且只含 [A-Za-z0-9._-]
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch b := id[i]; {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '.', b == '_', b == '-':
		default:
			return false
		}
	}
	return true
}

// 自定义 recovery 中间件，返回统一的 JSON 错误
func (p *Proxy) customRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				stack := debug.Stack()
				p.logger.Error(fmt.Sprintf("Panic recovered: %v request_id=%s\n%s", err, c.GetString(ctxRequestID), string(stack)))
				c.Set(ctxOutcome, outcomeInternalError)
				c.AbortWithStatusJSON(http.StatusInternalServerError, withDetails(errInternal, fmt.Sprint(err)))
			}
		}()
		c.Next()
	}
}

// observe 访问日志与请求计数
func (p *Proxy) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		outcome := c.GetString(ctxOutcome)
		if outcome == "" {
			outcome = outcomeOther
		}
		p.metrics.observeRequest(outcome, status)

		if p.accessLog == nil {
			return
		}
		fields := map[string]any{
			"outcome":    outcome,
			"request_id": c.GetString(ctxRequestID),
		}
		if v, ok := c.Get(ctxUpstreamStatus); ok {
			fields["upstream_status"] = v
			fields["variant"] = string(p.client.Settings().Variant)
		}
		p.accessLog.Println(logx.FormatRequestLine(time.Now(), status, time.Since(start), c.ClientIP(), c.Request.Method, c.Request.URL.Path, fields, p.accessColor))
	}
}

// handleRequest 读取 message，调用上游，返回 {reply} 或 {error, details}
func (p *Proxy) handleRequest(c *gin.Context) {
	// OPTIONS 请求已经在 CORS 中间件中处理了
	if c.Request.Method == http.MethodOptions {
		return
	}
	rid := c.GetString(ctxRequestID)

	body, err := p.readBody(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			p.logger.Error("Request body too large:", tooLarge.Limit, "request_id="+rid)
			c.Set(ctxOutcome, outcomeTooLarge)
			c.JSON(http.StatusRequestEntityTooLarge, ErrorReply{Error: errBodyTooLarge})
			return
		}
		p.internalError(c, err)
		return
	}

	message, err := parseMessage(body)
	if err != nil {
		p.internalError(c, err)
		return
	}

	settings := p.client.Settings()
	start := time.Now()
	reply, err := p.client.Generate(c.Request.Context(), message)

	var missing *gemini.MissingConfigError
	if errors.As(err, &missing) {
		p.logger.Error(fmt.Sprintf("Missing %s in configuration", missing.Name), "request_id="+rid)
		c.Set(ctxOutcome, outcomeConfigError)
		c.JSON(http.StatusInternalServerError, ErrorReply{Error: missing.Error()})
		return
	}

	var upErr *gemini.UpstreamError
	switch {
	case err == nil:
		p.metrics.observeUpstream(string(settings.Variant), http.StatusOK, time.Since(start))
		c.Set(ctxUpstreamStatus, http.StatusOK)
	case errors.As(err, &upErr):
		p.metrics.observeUpstream(string(settings.Variant), upErr.Status, time.Since(start))
		c.Set(ctxUpstreamStatus, upErr.Status)
		p.logger.Error("Gemini API error:", upErr.Status, upErr.Body, "request_id="+rid)
		c.Set(ctxOutcome, outcomeUpstreamError)
		c.JSON(upErr.Status, withDetails(errUpstreamFailed, upErr.Body))
		return
	default:
		p.metrics.observeUpstream(string(settings.Variant), 0, time.Since(start))
		p.internalError(c, err)
		return
	}

	c.Set(ctxOutcome, outcomeOK)
	c.JSON(http.StatusOK, ChatReply{Reply: reply})
}

// readBody 读完整个请求体，超过 max_body_bytes 返回 *http.MaxBytesError
func (p *Proxy) readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	r := http.MaxBytesReader(c.Writer, c.Request.Body, p.config.Server.MaxBodyBytes)
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := c.Request.Context().Err(); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Proxy) internalError(c *gin.Context, err error) {
	p.logger.Error("Proxy error:", err, "request_id="+c.GetString(ctxRequestID))
	c.Set(ctxOutcome, outcomeInternalError)
	c.JSON(http.StatusInternalServerError, withDetails(errInternal, err.Error()))
}
