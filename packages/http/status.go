package http

import (
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type statusKind int

const (
	statusDefault statusKind = iota
	statusAny
	statusPattern
	statusCodes
)

// Status is the status a response is expected to have. The zero value
// accepts 2xx and 3xx responses.
type Status struct {
	kind    statusKind
	pattern string
	codes   []int
}

// StatusAny accepts every response.
var StatusAny = Status{kind: statusAny}

// StatusCode accepts any of the given codes.
func StatusCode(codes ...int) Status {
	return Status{kind: statusCodes, codes: codes}
}

// StatusLine accepts a response whose code or full status line ("404 Not
// Found") equals s, or, when s contains a '*', whose status line matches
// the glob ("4*"). "*" alone is StatusAny.
func StatusLine(s string) Status {
	if s == "*" {
		return StatusAny
	}
	return Status{kind: statusPattern, pattern: s}
}

func (s Status) String() string {
	switch s.kind {
	case statusAny:
		return "*"
	case statusPattern:
		return s.pattern
	case statusCodes:
		parts := make([]string, len(s.codes))
		for i, c := range s.codes {
			parts[i] = strconv.Itoa(c)
		}
		return strings.Join(parts, ", ")
	}
	return "200 OK or 3xx redirect"
}

// CheckStatus returns an *AppError when resp does not satisfy want.
func CheckStatus(want Status, resp *Response) error {
	switch want.kind {
	case statusAny:
		return nil

	case statusPattern:
		if strings.Contains(want.pattern, "*") {
			ok, err := doublestar.Match(want.pattern, resp.Status)
			if err != nil {
				return NewAppError("Bad status pattern %q: %s", want.pattern, err)
			}
			if ok {
				return nil
			}
			return NewAppError("Bad response: %s (not %s for %s)\n%s",
				resp.Status, want.pattern, resp.URL(), resp)
		}
		if want.pattern == resp.Status || want.pattern == strconv.Itoa(resp.StatusCode) {
			return nil
		}
		return NewAppError("Bad response: %s (not %s)\n%s", resp.Status, want.pattern, resp)

	case statusCodes:
		for _, c := range want.codes {
			if c == resp.StatusCode {
				return nil
			}
		}
		return NewAppError("Bad response: %s (not one of %s for %s)\n%s",
			resp.Status, want, resp.URL(), resp)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}
	return NewAppError("Bad response: %s (not 200 OK or 3xx redirect for %s)\n%s",
		resp.Status, resp.URL(), resp)
}
