package gemini

import (
	"fmt"
	"strings"
)

// Variant 上游接入方式
type Variant string

const (
	PublicKeyV1   Variant = "public-key-v1"
	PublicKeyV2   Variant = "public-key-v2"
	CloudPlatform Variant = "cloud-platform"
)

const (
	DefaultPublicBaseURL = "https://generativelanguage.googleapis.com"
	DefaultRegion        = "us-central1"

	// 凭证所在的环境变量名，也用于缺失配置时的错误信息
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvAccessToken = "VERTEX_ACCESS_TOKEN"
	EnvProjectID   = "VERTEX_PROJECT_ID"
)

var defaultModels = map[Variant]string{
	PublicKeyV1:   "gemini-1.5-flash",
	PublicKeyV2:   "gemini-2.5-flash",
	CloudPlatform: "gemini-1.5-flash",
}

// Variants 所有支持的接入方式
func Variants() []Variant {
	return []Variant{PublicKeyV1, PublicKeyV2, CloudPlatform}
}

// ParseVariant 大小写不敏感
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultModels[v]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown upstream variant %q (supported: %s, %s, %s)", s, PublicKeyV1, PublicKeyV2, CloudPlatform)
}

// DefaultModel 该接入方式下硬编码的模型名
func (v Variant) DefaultModel() string {
	return defaultModels[v]
}

// UsesBearer 云平台方式用 Authorization 头，其余用 key 查询参数
func (v Variant) UsesBearer() bool {
	return v == CloudPlatform
}

// CredentialEnv 凭证对应的环境变量名
func (v Variant) CredentialEnv() string {
	if v.UsesBearer() {
		return EnvAccessToken
	}
	return EnvAPIKey
}

// DefaultBaseURL 未配置 base_url 时使用的上游地址
func (v Variant) DefaultBaseURL(region string) string {
	if v.UsesBearer() {
		if strings.TrimSpace(region) == "" {
			region = DefaultRegion
		}
		return "https://" + region + "-aiplatform.googleapis.com"
	}
	return DefaultPublicBaseURL
}
