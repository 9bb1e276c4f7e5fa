package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

const (
	payloadKey     = "request_payload"
	maxPayloadBody = 8 << 20
)

// Payload 合并后的请求参数
type Payload map[string]any

// MergePayload 合并顺序：query，然后表单字段，最后 JSON 对象 body。
// 同名字段后者覆盖前者；body 不是 JSON 对象时忽略。
func MergePayload(query, form url.Values, rawBody []byte) Payload {
	p := Payload{}
	addValues(p, query)
	addValues(p, form)
	if len(bytes.TrimSpace(rawBody)) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(rawBody, &obj); err == nil {
			for k, v := range obj {
				p[k] = v
			}
		}
	}
	return p
}

// addValues a[]=1&a[]=2 形式或重复出现的 key 保留为列表
func addValues(p Payload, values url.Values) {
	for k, vs := range values {
		name := strings.TrimSuffix(k, "[]")
		switch {
		case len(vs) == 0:
		case len(vs) == 1 && name == k:
			p[name] = vs[0]
		default:
			p[name] = append([]string(nil), vs...)
		}
	}
}

// readPayload 读取并缓存当前请求的合并参数，body 会被还原供后续读取
func readPayload(c *gin.Context) Payload {
	if v, ok := c.Get(payloadKey); ok {
		return v.(Payload)
	}

	var raw []byte
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		raw, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBody))
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	}

	var form url.Values
	ct := c.ContentType()
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		if ct == "multipart/form-data" {
			_ = c.Request.ParseMultipartForm(32 << 20)
		} else {
			_ = c.Request.ParseForm()
		}
		form = c.Request.PostForm
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		raw = nil
	}

	p := MergePayload(c.Request.URL.Query(), form, raw)
	c.Set(payloadKey, p)
	return p
}

// Has 字段存在且不为 null
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

func (p Payload) String(key string) string {
	return p.StringOr(key, "")
}

// StringOr 字段存在时返回去空格后的值，否则返回 fallback
func (p Payload) StringOr(key, fallback string) string {
	if !p.Has(key) {
		return fallback
	}
	return strings.TrimSpace(cast.ToString(p[key]))
}

// Int 无法转换为整数时按 0 处理
func (p Payload) Int(key string, fallback int) int {
	if !p.Has(key) {
		return fallback
	}
	return cast.ToInt(p[key])
}

// OptionalID 字段存在且为正整数时返回指针；存在但不是正整数返回 nil
func (p Payload) OptionalID(key string) (id *uint, present bool) {
	if !p.Has(key) {
		return nil, false
	}
	n := cast.ToInt(p[key])
	if n <= 0 {
		return nil, true
	}
	u := uint(n)
	return &u, true
}

// Enabled 只有值为 1 时视为开启
func (p Payload) Enabled(key string, fallback bool) bool {
	if !p.Has(key) {
		return fallback
	}
	return cast.ToInt(p[key]) == 1
}

func (p Payload) Slice(key string) []any {
	if !p.Has(key) {
		return nil
	}
	switch v := p[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	return []any{p[key]}
}

// IDs 解析 id 列表，忽略非正整数
func (p Payload) IDs(key string) []uint {
	var out []uint
	for _, v := range p.Slice(key) {
		if n := cast.ToInt(v); n > 0 {
			out = append(out, uint(n))
		}
	}
	return out
}

// Object 取 JSON 对象字段，非对象返回 nil
func (p Payload) Object(key string) map[string]any {
	m, _ := p[key].(map[string]any)
	return m
}

// Objects 取对象数组字段，跳过非对象元素
func (p Payload) Objects(key string) []Payload {
	var out []Payload
	for _, v := range p.Slice(key) {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Payload(m))
		}
	}
	return out
}
