package assertions

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/hittest/packages/http"
	"github.com/abdul-hamid-achik/hittest/packages/pattern"
)

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

type Evaluator struct {
	response *http.Response
	bodyJSON gjson.Result
	baseDir  string // resolves schema file paths
}

func NewEvaluator(resp *http.Response) *Evaluator {
	return NewEvaluatorWithBaseDir(resp, "")
}

func NewEvaluatorWithBaseDir(resp *http.Response, baseDir string) *Evaluator {
	e := &Evaluator{
		response: resp,
		baseDir:  baseDir,
	}
	if len(resp.Body) > 0 && gjson.ValidBytes(resp.Body) {
		e.bodyJSON = resp.JSON("")
	}
	return e
}

func (e *Evaluator) Evaluate(a *Assertion) *Result {
	result := &Result{
		Subject:  a.Subject,
		Operator: a.Operator.String(),
		Expected: a.Expected,
	}

	actual, err := e.actualValue(a.Subject)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Actual = actual

	result.Passed, result.Message = e.compare(actual, a.Operator, a.Expected)
	if a.Operator == OpLength {
		result.Actual = computeLength(actual)
	}
	return result
}

func (e *Evaluator) actualValue(subject string) (any, error) {
	switch {
	case subject == "status":
		return e.response.StatusCode, nil
	case subject == "duration":
		return e.response.DurationMs(), nil
	case subject == "text":
		return e.response.Text()
	case strings.HasPrefix(subject, "header"):
		name := strings.TrimSpace(strings.TrimPrefix(subject, "header"))
		if name == "" {
			return e.response.Headers, nil
		}
		if values := e.response.Headers.Values(name); len(values) > 0 {
			return strings.Join(values, ", "), nil
		}
		return nil, nil
	case subject == "body" || strings.HasPrefix(subject, "body."):
		return e.bodyValue(strings.TrimPrefix(strings.TrimPrefix(subject, "body"), "."))
	default:
		return e.bodyValue(subject)
	}
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// gjsonPath turns "items[0].tags[1]" into "items.0.tags.1".
func gjsonPath(path string) string {
	return strings.TrimPrefix(bracketIndex.ReplaceAllString(path, ".$1"), ".")
}

func (e *Evaluator) bodyValue(path string) (any, error) {
	if !e.bodyJSON.Exists() {
		if path != "" {
			return nil, fmt.Errorf("response body is not JSON")
		}
		return e.response.Text()
	}
	if path == "" {
		return e.bodyJSON.Value(), nil
	}
	found := e.bodyJSON.Get(gjsonPath(path))
	if !found.Exists() {
		return nil, nil
	}
	return found.Value(), nil
}

func (e *Evaluator) compare(actual any, op Operator, expected any) (bool, string) {
	switch op {
	case OpEquals:
		return equals(actual, expected)
	case OpNotEquals:
		passed, _ := equals(actual, expected)
		return negate(passed, "expected not to equal %v", expected)
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return compareNumeric(actual, expected, op)
	case OpContains:
		return textCheck(actual, expected, strings.Contains, "contain")
	case OpNotContains:
		passed, _ := textCheck(actual, expected, strings.Contains, "contain")
		return negate(passed, "expected not to contain %v", expected)
	case OpStartsWith:
		return textCheck(actual, expected, strings.HasPrefix, "start with")
	case OpEndsWith:
		return textCheck(actual, expected, strings.HasSuffix, "end with")
	case OpMatches:
		return matches(actual, expected)
	case OpExists:
		if actual == nil {
			return false, "expected to exist"
		}
		return true, ""
	case OpNotExists:
		if actual != nil {
			return false, "expected not to exist"
		}
		return true, ""
	case OpLength:
		return length(actual, expected)
	case OpIncludes:
		return includes(actual, expected)
	case OpIn:
		return in(actual, expected)
	case OpType:
		return typeCheck(actual, expected)
	case OpEach:
		return each(actual, expected)
	case OpSchema:
		return e.schema(actual, expected)
	}
	return false, fmt.Sprintf("unknown operator: %v", op)
}

func negate(passed bool, format string, args ...any) (bool, string) {
	if passed {
		return false, fmt.Sprintf(format, args...)
	}
	return true, ""
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	a, aErr := cast.ToFloat64E(actual)
	b, bErr := cast.ToFloat64E(expected)
	if aErr == nil && bErr == nil && isNumeric(actual) && isNumeric(expected) && a == b {
		return true, ""
	}
	if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

// isNumeric keeps booleans out of numeric comparison; cast treats true as 1.
func isNumeric(v any) bool {
	switch v.(type) {
	case bool, nil:
		return false
	}
	return true
}

func compareNumeric(actual, expected any, op Operator) (bool, string) {
	a, aErr := cast.ToFloat64E(actual)
	b, bErr := cast.ToFloat64E(expected)
	if aErr != nil || bErr != nil || !isNumeric(actual) || !isNumeric(expected) {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, op, expected)
	}

	var passed bool
	switch op {
	case OpGreaterThan:
		passed = a > b
	case OpGreaterOrEqual:
		passed = a >= b
	case OpLessThan:
		passed = a < b
	case OpLessOrEqual:
		passed = a <= b
	}
	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v", actual, op, expected)
}

func textCheck(actual, expected any, check func(s, sub string) bool, verb string) (bool, string) {
	if check(fmt.Sprintf("%v", actual), fmt.Sprintf("%v", expected)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to %s '%v'", actual, verb, expected)
}

// matches accepts a regexp source, optionally written between slashes, or
// anything pattern.MakePattern understands.
func matches(actual, expected any) (bool, string) {
	switch expected.(type) {
	case float64, bool:
		expected = fmt.Sprintf("%v", expected)
	}
	if s, ok := expected.(string); ok && len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		expected = s[1 : len(s)-1]
	}
	m, err := pattern.MakePattern(expected)
	if err != nil {
		return false, fmt.Sprintf("invalid pattern: %v", err)
	}
	if m.Matches(fmt.Sprintf("%v", actual)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match %v", actual, expected)
}

// computeLength returns the length of a value, or -1 if it has none.
func computeLength(actual any) int {
	if actual == nil {
		return -1
	}
	rv := reflect.ValueOf(actual)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len()
	}
	return -1
}

func length(actual, expected any) (bool, string) {
	want, err := cast.ToIntE(expected)
	if err != nil {
		return false, fmt.Sprintf("expected length must be a number, got %v", expected)
	}
	got := computeLength(actual)
	if got == -1 {
		return false, fmt.Sprintf("cannot get length of %T", actual)
	}
	if got == want {
		return true, ""
	}
	return false, fmt.Sprintf("expected length %d, got %d", want, got)
}

func includes(actual, expected any) (bool, string) {
	items, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	for _, item := range items {
		if ok, _ := equals(item, expected); ok {
			return true, ""
		}
	}
	return false, fmt.Sprintf("expected array to include %v", expected)
}

func in(actual, expected any) (bool, string) {
	items, ok := expected.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'in' operator, got %T", expected)
	}
	for _, item := range items {
		if ok, _ := equals(actual, item); ok {
			return true, ""
		}
	}
	return false, fmt.Sprintf("expected %v to be in %v", actual, expected)
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

func typeCheck(actual, expected any) (bool, string) {
	want := fmt.Sprintf("%v", expected)
	got := jsonType(actual)
	if got == want {
		return true, ""
	}
	return false, fmt.Sprintf("expected type %s, got %s", want, got)
}

// each applies expected to every item: either a plain value every item must
// equal, or {"operator": "...", "value": ...}.
func each(actual, expected any) (bool, string) {
	items, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'each' operator, got %T", actual)
	}

	check := func(item any) (bool, string) { return equals(item, expected) }
	if spec, ok := expected.(map[string]any); ok {
		name, hasOp := spec["operator"]
		value, hasValue := spec["value"]
		if hasOp && hasValue {
			op, err := ParseOperator(fmt.Sprintf("%v", name))
			if err != nil || op == OpEach || op == OpSchema {
				return false, fmt.Sprintf("unknown operator in each: %v", name)
			}
			check = func(item any) (bool, string) {
				return (&Evaluator{}).compare(item, op, value)
			}
		}
	}

	for i, item := range items {
		if passed, msg := check(item); !passed {
			return false, fmt.Sprintf("item[%d]: %s", i, msg)
		}
	}
	return true, ""
}

func (e *Evaluator) schema(actual, expected any) (bool, string) {
	schemaPath := fmt.Sprintf("%v", expected)
	if !filepath.IsAbs(schemaPath) && e.baseDir != "" {
		schemaPath = filepath.Join(e.baseDir, schemaPath)
	}
	if err := validatePathWithinBase(schemaPath, e.baseDir); err != nil {
		return false, err.Error()
	}

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return false, fmt.Sprintf("failed to read schema file: %v", err)
	}
	document, err := sonic.ConfigStd.Marshal(actual)
	if err != nil {
		return false, fmt.Sprintf("failed to marshal actual value: %v", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return false, fmt.Sprintf("schema validation error: %v", err)
	}
	if result.Valid() {
		return true, ""
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return false, fmt.Sprintf("schema validation failed: %s", strings.Join(problems, "; "))
}

// validatePathWithinBase checks that the resolved path stays within the base directory
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}
	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}
	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}
	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}
	return nil
}

// EvaluateAll runs every assertion against resp.
func EvaluateAll(resp *http.Response, assertions []*Assertion) []*Result {
	return EvaluateAllWithBaseDir(resp, assertions, "")
}

func EvaluateAllWithBaseDir(resp *http.Response, assertions []*Assertion, baseDir string) []*Result {
	evaluator := NewEvaluatorWithBaseDir(resp, baseDir)
	results := make([]*Result, len(assertions))
	for i, a := range assertions {
		results[i] = evaluator.Evaluate(a)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []*Result) []*Result {
	var failed []*Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
