package pattern

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixSearcher string

func (p prefixSearcher) FindStringSubmatch(s string) []string {
	if strings.HasPrefix(s, string(p)) {
		return []string{string(p)}
	}
	return nil
}

func TestMakePattern_Nil(t *testing.T) {
	m, err := MakePattern(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.True(t, m.Matches("anything"))
}

func TestMakePattern_Text(t *testing.T) {
	m, err := MakePattern("abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, m("xxabcxx"))
	assert.Nil(t, m("xyz"))

	m, err = MakePattern(`id=(\d+)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"id=42", "42"}, m("user id=42 found"))
}

func TestMakePattern_Bytes(t *testing.T) {
	m, err := MakePattern([]byte("caf\xc3\xa9"))
	require.NoError(t, err)
	assert.True(t, m.Matches("un café"))
}

func TestMakePattern_Regexp(t *testing.T) {
	m, err := MakePattern(regexp.MustCompile(`(?i)HELLO`))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, m("say hello"))
}

func TestMakePattern_Searcher(t *testing.T) {
	m, err := MakePattern(prefixSearcher("<html"))
	require.NoError(t, err)
	assert.True(t, m.Matches("<html><body/></html>"))
	assert.False(t, m.Matches("plain"))
}

func TestMakePattern_Callables(t *testing.T) {
	var fn func(string) []string = func(s string) []string {
		if s == "x" {
			return []string{"x"}
		}
		return nil
	}
	m, err := MakePattern(fn)
	require.NoError(t, err)
	assert.True(t, m.Matches("x"))

	m, err = MakePattern(func(s string) bool { return len(s) > 3 })
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, m("long"))
	assert.Nil(t, m("no"))

	m, err = MakePattern(Matcher(fn))
	require.NoError(t, err)
	assert.False(t, m.Matches("y"))
}

func TestMakePattern_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"integer", 42},
		{"struct", struct{ A int }{1}},
		{"bad regexp", "a(b"},
		{"nil regexp", (*regexp.Regexp)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MakePattern(tt.value)
			var patErr *PatternError
			require.ErrorAs(t, err, &patErr)
			assert.Contains(t, patErr.Error(), "cannot make a pattern")
		})
	}

	assert.Panics(t, func() { MustMakePattern(3.5) })
}
