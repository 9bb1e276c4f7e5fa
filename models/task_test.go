package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFieldTolerant(t *testing.T) {
	cases := map[string]any{
		"empty":     "",
		"blank":     "   ",
		"null":      "null",
		"malformed": "{not json",
		"array":     "[1,2,3]",
		"number":    "42",
		"nil":       nil,
		"int":       7,
		"bytes nil": []byte(nil),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got := DecodeField(raw)
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}

	got := DecodeField([]byte(`{"prompt":"a castle","count":2}`))
	assert.Equal(t, "a castle", got["prompt"])
	assert.Equal(t, float64(2), got["count"])
}

func TestEncodeFieldFallback(t *testing.T) {
	assert.Equal(t, "{}", EncodeField(nil))
	assert.Equal(t, "{}", EncodeField(map[string]any{}))
	// channel 无法序列化
	assert.Equal(t, "{}", EncodeField(map[string]any{"bad": make(chan int)}))
	assert.JSONEq(t, `{"a":"b"}`, EncodeField(map[string]any{"a": "b"}))
}

func TestProperty_DecodeEncodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(x)) == x for string maps", prop.ForAll(
		func(m map[string]string) bool {
			in := make(map[string]any, len(m))
			for k, v := range m {
				in[k] = v
			}
			out := DecodeField(EncodeField(in))
			if len(out) != len(in) {
				return false
			}
			for k, v := range in {
				if out[k] != v {
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.AlphaString(), gen.AnyString()),
	))

	properties.Property("decode never fails on arbitrary text", prop.ForAll(
		func(s string) bool {
			return DecodeField(s) != nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestProperty_NormalizeStatus(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	valid := map[string]bool{
		TaskStatusPending: true, TaskStatusRunning: true,
		TaskStatusCompleted: true, TaskStatusFailed: true,
	}

	properties.Property("unknown statuses normalize to pending", prop.ForAll(
		func(s string) bool {
			want := strings.ToLower(strings.TrimSpace(s))
			if !valid[want] {
				want = TaskStatusPending
			}
			return NormalizeStatus(s) == want
		},
		gen.AnyString(),
	))

	properties.Property("progress clamp stays in range", prop.ForAll(
		func(p int) bool {
			c := ClampProgress(p)
			return c >= 0 && c <= 100 && (p < 0 || p > 100 || c == p)
		},
		gen.Int(),
	))

	properties.TestingRun(t)
}

func TestNormalizeStatusVariants(t *testing.T) {
	assert.Equal(t, TaskStatusCompleted, NormalizeStatus("  COMPLETED "))
	assert.Equal(t, TaskStatusRunning, NormalizeStatus("Running"))
	assert.Equal(t, TaskStatusPending, NormalizeStatus("finished"))
	assert.Equal(t, TaskStatusPending, NormalizeStatus(""))
}

func TestTaskMarshalJSONDecodesFields(t *testing.T) {
	task := Task{
		ID:       3,
		TaskKey:  "task_20260101000000_deadbeef",
		TaskType: TaskTypeImageGenerate,
		Status:   TaskStatusCompleted,
		Progress: 100,
		Payload:  `{"prompt":"a castle"}`,
		Result:   "",
	}
	b, err := json.Marshal(task)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "task_20260101000000_deadbeef", out["task_key"])
	assert.Equal(t, map[string]any{"prompt": "a castle"}, out["payload"])
	assert.Equal(t, map[string]any{}, out["result"])
}
