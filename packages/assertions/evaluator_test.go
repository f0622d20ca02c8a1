package assertions

import (
	stdhttp "net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hittest/packages/http"
)

func createResponse(statusCode int, body string, headers stdhttp.Header) *http.Response {
	if headers == nil {
		headers = stdhttp.Header{}
	}
	if headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "application/json")
	}
	return &http.Response{
		StatusCode: statusCode,
		Status:     stdhttp.StatusText(statusCode),
		Headers:    headers,
		Body:       []byte(body),
		Duration:   100 * time.Millisecond,
	}
}

func evaluate(t *testing.T, resp *http.Response, expr string) *Result {
	t.Helper()
	a, err := ParseAssertion(expr)
	require.NoError(t, err)
	return NewEvaluator(resp).Evaluate(a)
}

func TestEvaluator_StatusCode(t *testing.T) {
	resp := createResponse(200, `{}`, nil)

	result := NewEvaluator(resp).Evaluate(&Assertion{Subject: "status", Operator: OpEquals, Expected: 200})
	assert.True(t, result.Passed)
	assert.Equal(t, 200, result.Actual)

	assert.True(t, evaluate(t, createResponse(404, `{}`, nil), "status != 200").Passed)
	assert.True(t, evaluate(t, resp, "status in [200, 201]").Passed)
	assert.False(t, evaluate(t, resp, "status >= 300").Passed)
}

func TestEvaluator_Body(t *testing.T) {
	resp := createResponse(200, `{"user": {"name": "John", "age": 30, "admin": false}, "items": [1, 2, 3, 4, 5], "tags": ["a", "b"]}`, nil)

	tests := []struct {
		expr   string
		passed bool
	}{
		{`body.user.name == "John"`, true},
		{`body.user.name == 'John'`, true},
		{`body.user.name == John`, true},
		{"body.user.age == 30", true},
		{"body.user.age > 25", true},
		{"body.user.age < 35", true},
		{"body.user.age <= 29", false},
		{"body.user.admin == false", true},
		{"body.user.admin > 0", false},
		{"body.items length 5", true},
		{"body.items includes 3", true},
		{"body.items includes 9", false},
		{"body.items[0] == 1", true},
		{"items[4] == 5", true},
		{"body.user exists", true},
		{"body.user.missing !exists", true},
		{"body.user.missing exists", false},
		{"body.user type object", true},
		{"body.items type array", true},
		{"body.user.name type string", true},
		{"body.user.age type number", true},
		{"body.user.name startsWith Jo", true},
		{"body.user.name endsWith hn", true},
		{"body.user.name contains oh", true},
		{"body.user.name !contains xyz", true},
		{"body.user.name matches /^J.*n$/", true},
		{`body.tags each {"operator": "type", "value": "string"}`, true},
		{`body.items each {"operator": ">", "value": 1}`, false},
		{`body.tags each "a"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			result := evaluate(t, resp, tt.expr)
			assert.Equal(t, tt.passed, result.Passed, "Message: %s", result.Message)
		})
	}
}

func TestEvaluator_LengthActual(t *testing.T) {
	resp := createResponse(200, `{"items": [1, 2, 3]}`, nil)
	result := evaluate(t, resp, "body.items length 4")
	assert.False(t, result.Passed)
	assert.Equal(t, 3, result.Actual)
	assert.Equal(t, "expected length 4, got 3", result.Message)
}

func TestEvaluator_Headers(t *testing.T) {
	headers := stdhttp.Header{}
	headers.Set("Content-Type", "application/json; charset=utf-8")
	headers.Add("Set-Cookie", "a=1")
	headers.Add("Set-Cookie", "b=2")
	resp := createResponse(200, `{}`, headers)

	assert.True(t, evaluate(t, resp, "header Content-Type contains application/json").Passed)
	assert.True(t, evaluate(t, resp, "header content-type startsWith application").Passed)
	assert.True(t, evaluate(t, resp, "header Set-Cookie == a=1, b=2").Passed)
	assert.True(t, evaluate(t, resp, "header X-Missing !exists").Passed)
	assert.False(t, evaluate(t, resp, "header X-Missing exists").Passed)
}

func TestEvaluator_Text(t *testing.T) {
	headers := stdhttp.Header{"Content-Type": {"text/plain; charset=latin1"}}
	resp := createResponse(200, "caf\xe9 ordered 42", headers)

	assert.True(t, evaluate(t, resp, "text contains café").Passed)
	assert.True(t, evaluate(t, resp, `text matches ordered \d+`).Passed)
	assert.True(t, evaluate(t, resp, "body contains café").Passed)

	result := evaluate(t, resp, "body.field == 1")
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "not JSON")
}

func TestEvaluator_Duration(t *testing.T) {
	resp := createResponse(200, `{}`, nil)
	assert.True(t, evaluate(t, resp, "duration < 1000").Passed)
	assert.False(t, evaluate(t, resp, "duration < 50").Passed)
}

func TestEvaluator_InvalidPattern(t *testing.T) {
	resp := createResponse(200, `{"name": "x"}`, nil)
	result := evaluate(t, resp, "body.name matches /(/")
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "invalid pattern")
}

func TestEvaluator_Schema(t *testing.T) {
	dir := t.TempDir()
	schema := `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "integer"},
			"name": {"type": "string"}
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte(schema), 0o644))

	tests := []struct {
		name   string
		body   string
		schema string
		passed bool
	}{
		{"valid", `{"id": 1, "name": "John"}`, "user.json", true},
		{"missing field", `{"id": 1}`, "user.json", false},
		{"wrong type", `{"id": "1", "name": "John"}`, "user.json", false},
		{"missing schema", `{}`, "nope.json", false},
		{"outside base", `{}`, "../escape.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := createResponse(200, tt.body, nil)
			e := NewEvaluatorWithBaseDir(resp, dir)
			result := e.Evaluate(&Assertion{Subject: "body", Operator: OpSchema, Expected: tt.schema})
			assert.Equal(t, tt.passed, result.Passed, "Message: %s", result.Message)
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	resp := createResponse(201, `{"id": 7}`, nil)
	var list []*Assertion
	for _, expr := range []string{"status == 201", "body.id == 7", "body.id == 8"} {
		a, err := ParseAssertion(expr)
		require.NoError(t, err)
		list = append(list, a)
	}

	results := EvaluateAll(resp, list)
	require.Len(t, results, 3)
	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "body.id", failed[0].Subject)
	assert.Equal(t, "expected 8, got 7", failed[0].Message)
}
