package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/bagaking/gemini-proxy/gemini"
)

var errNullBody = errors.New("parse request body: body is null")

// parseMessage 从请求体中取出 message。
// 空请求体等同于 {}；不是 JSON 或为 null 时返回错误；
// 其他非对象 JSON 或 message 为假值（缺省、null、false、0、""）时使用 gemini.DefaultMessage。
// 上游 parts[].text 只接受字符串，因此非字符串的 message 统一转成紧凑 JSON 文本后转发（42 -> "42"）。
func parseMessage(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return gemini.DefaultMessage, nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("parse request body: %w", err)
	}
	if bytes.Equal(body, []byte("null")) {
		return "", errNullBody
	}
	if body[0] != '{' {
		return gemini.DefaultMessage, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("parse request body: %w", err)
	}
	return messageText(obj["message"]), nil
}

func messageText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return gemini.DefaultMessage
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return gemini.DefaultMessage
		}
		return s
	case 'n', 'f':
		// null, false
		return gemini.DefaultMessage
	case '{', '[', 't':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return string(raw)
		}
		return buf.String()
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err == nil && f == 0 {
			return gemini.DefaultMessage
		}
		return string(raw)
	}
}
