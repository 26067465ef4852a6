package proxy

// ChatRequest 入站请求体，message 可缺省
type ChatRequest struct {
	Message string `json:"message,omitempty"`
}

// ChatReply 成功时的响应
type ChatReply struct {
	Reply string `json:"reply"`
}

// ErrorReply 失败时的响应，details 为上游原始错误文本或内部错误信息
type ErrorReply struct {
	Error   string  `json:"error"`
	Details *string `json:"details,omitempty"`
}

const (
	errUpstreamFailed = "Gemini API request failed"
	errInternal       = "Internal Server Error"
	errBodyTooLarge   = "Request body too large"
	errNotFound       = "Not Found"
)

func withDetails(msg, details string) ErrorReply {
	return ErrorReply{Error: msg, Details: &details}
}

// outcome 标签，用于访问日志与 metrics
const (
	outcomeOK            = "ok"
	outcomePreflight     = "preflight"
	outcomeConfigError   = "config_error"
	outcomeUpstreamError = "upstream_error"
	outcomeInternalError = "internal_error"
	outcomeTooLarge      = "too_large"
	outcomeNotFound      = "not_found"
	outcomeOther         = "other"
)

// gin.Context 中使用的 key
const (
	ctxOutcome        = "gp.outcome"
	ctxUpstreamStatus = "gp.upstream_status"
	ctxRequestID      = "gp.request_id"
)
