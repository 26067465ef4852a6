package gemini

import "fmt"

// MissingConfigError 必需的配置项为空，Name 为对应的环境变量名
type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return "Missing " + e.Name
}

// UpstreamError 上游返回非 2xx，Body 为原始响应文本
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini upstream status %d: %s", e.Status, e.Body)
}
