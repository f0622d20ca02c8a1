package assertions

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpExists
	OpNotExists
	OpLength
	OpIncludes
	OpIn
	OpType
	OpEach
	OpSchema
)

var operatorNames = map[Operator]string{
	OpEquals:         "==",
	OpNotEquals:      "!=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpContains:       "contains",
	OpNotContains:    "!contains",
	OpStartsWith:     "startsWith",
	OpEndsWith:       "endsWith",
	OpMatches:        "matches",
	OpExists:         "exists",
	OpNotExists:      "!exists",
	OpLength:         "length",
	OpIncludes:       "includes",
	OpIn:             "in",
	OpType:           "type",
	OpEach:           "each",
	OpSchema:         "schema",
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// ParseOperator looks an operator up by name, ignoring case.
func ParseOperator(name string) (Operator, error) {
	for op, n := range operatorNames {
		if strings.EqualFold(n, name) {
			return op, nil
		}
	}
	return OpEquals, fmt.Errorf("unknown operator: %s", name)
}

// Assertion checks one subject of a response: "status", "header <Name>",
// "body", "body.<path>", "text", "duration" or a bare JSON path.
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Expected == nil {
		return a.Subject + " " + a.Operator.String()
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

// ParseAssertion parses "<subject> <operator> [expected]". A header subject
// takes the header name as a second word. Expected values that are valid
// JSON are decoded, anything else is kept as text with surrounding quotes
// removed.
//
//	status == 200
//	header Content-Type contains json
//	body.items length 3
//	text matches /order \d+/
func ParseAssertion(expr string) (*Assertion, error) {
	words := strings.Fields(expr)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty assertion")
	}

	subject := words[0]
	rest := words[1:]
	if subject == "header" {
		if len(rest) == 0 {
			return nil, fmt.Errorf("assertion %q: header name missing", expr)
		}
		subject = "header " + rest[0]
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("assertion %q: operator missing", expr)
	}

	op, err := ParseOperator(rest[0])
	if err != nil {
		return nil, fmt.Errorf("assertion %q: %w", expr, err)
	}

	a := &Assertion{Subject: subject, Operator: op}
	if op == OpExists || op == OpNotExists {
		return a, nil
	}

	raw := strings.TrimSpace(afterWords(expr, len(words)-len(rest)+1))
	if raw == "" {
		return nil, fmt.Errorf("assertion %q: expected value missing", expr)
	}
	a.Expected = parseExpected(raw)
	return a, nil
}

// afterWords returns what follows the first n words of s, spacing intact.
func afterWords(s string, n int) string {
	for i := 0; i < n; i++ {
		s = strings.TrimLeft(s, " \t")
		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return ""
		}
		s = s[idx:]
	}
	return s
}

func parseExpected(raw string) any {
	if gjson.Valid(raw) {
		return gjson.Parse(raw).Value()
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	return raw
}
