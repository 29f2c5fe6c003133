package jsonvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical scalars", `1`, `1`, true},
		{"different numbers", `1`, `2`, false},
		{"key order ignored", `{"a":1,"b":{"c":[1,2]}}`, `{"b":{"c":[1,2]},"a":1}`, true},
		{"array order matters", `[1,2]`, `[2,1]`, false},
		{"missing key", `{"a":1}`, `{"a":1,"b":null}`, false},
		{"null vs absent in array", `[null]`, `[]`, false},
		{"shape mismatch object vs array", `{"a":[]}`, `{"a":{}}`, false},
		{"string vs number", `"1"`, `1`, false},
		{"nested language block", `{"en":{"title":"A","tags":["x"]}}`, `{"en":{"tags":["x"],"title":"A"}}`, true},
		{"bool", `true`, `false`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(decode(t, tt.a), decode(t, tt.b)))
			assert.Equal(t, tt.want, Equal(decode(t, tt.b), decode(t, tt.a)), "symmetry")
		})
	}
}

func TestEqual_MixedGoTypes(t *testing.T) {
	assert.True(t, Equal([]string{"a", "b"}, []any{"a", "b"}))
	assert.True(t, Equal(map[string]any{"n": 2}, map[string]any{"n": 2.0}))
	assert.True(t, Equal(json.Number("3"), 3.0))
	assert.True(t, Equal(map[string]string{"k": "v"}, map[string]any{"k": "v"}))
	assert.False(t, Equal(struct{}{}, struct{}{}))
}

func TestMerge_RightBiasedAndRetainsOldKeys(t *testing.T) {
	dst := map[string]any{"url": "/a", "x": 1.0, "y": map[string]any{"z": 1.0}}
	src := map[string]any{"url": "/a", "x": 2.0}

	got := Merge(dst, src)

	assert.Equal(t, map[string]any{"url": "/a", "x": 2.0, "y": map[string]any{"z": 1.0}}, got)
	assert.Equal(t, 1.0, dst["x"], "dst must not be mutated")
}

func TestMerge_RecursesIntoObjectsAndReplacesArrays(t *testing.T) {
	dst := decode(t, `{"en":{"title":"Old","tags":["a","b"],"header":{"title":"Old | Site"}}}`).(map[string]any)
	src := decode(t, `{"en":{"title":"New","tags":["c"]}}`).(map[string]any)

	got := Merge(dst, src)

	want := decode(t, `{"en":{"title":"New","tags":["c"],"header":{"title":"Old | Site"}}}`)
	assert.True(t, Equal(want, got), "got %v", got)
}

func TestMerge_ObjectOverScalarReplaces(t *testing.T) {
	got := Merge(map[string]any{"a": "str"}, map[string]any{"a": map[string]any{"b": true}})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": true}}, got)
}

func TestMerge_ResultSharesNoMemory(t *testing.T) {
	src := map[string]any{"list": []any{"a"}, "obj": map[string]any{"k": "v"}}
	got := Merge(nil, src)

	got["list"].([]any)[0] = "changed"
	got["obj"].(map[string]any)["k"] = "changed"

	assert.Equal(t, "a", src["list"].([]any)[0])
	assert.Equal(t, "v", src["obj"].(map[string]any)["k"])
}

func TestClone_DeepCopies(t *testing.T) {
	orig := map[string]any{"a": []any{map[string]any{"b": 1.0}}, "tags": []string{"x"}}
	cp := CloneMap(orig)

	require.True(t, Equal(orig, cp))
	cp["a"].([]any)[0].(map[string]any)["b"] = 2.0
	assert.Equal(t, 1.0, orig["a"].([]any)[0].(map[string]any)["b"])
	assert.Nil(t, CloneMap(nil))
}
