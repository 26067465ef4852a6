package gemini

const (
	// DefaultMessage 请求中没有 message 时发给上游的文本
	DefaultMessage = "Hello Gemini"
	// FallbackReply 上游成功但没有候选文本时的回复
	FallbackReply = "⚠️ No response from Gemini"
)

// Part 单个内容片段
type Part struct {
	Text string `json:"text"`
}

// Content 一组片段
type Content struct {
	Parts []Part `json:"parts"`
}

// GenerateRequest generateContent 请求体
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// NewGenerateRequest 把一条文本包装成固定的信封结构
func NewGenerateRequest(text string) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: text}}}},
	}
}

// ReplyText 沿 candidates[0].content.parts[0].text 取值。
// body 为解码到 any 的上游响应；任何一段缺失、类型不符或文本为空都返回 FallbackReply。
func ReplyText(body any) string {
	content := field(first(field(body, "candidates")), "content")
	text, _ := field(first(field(content, "parts")), "text").(string)
	if text == "" {
		return FallbackReply
	}
	return text
}

func field(v any, key string) any {
	m, _ := v.(map[string]any)
	return m[key]
}

func first(v any) any {
	a, _ := v.([]any)
	if len(a) == 0 {
		return nil
	}
	return a[0]
}
