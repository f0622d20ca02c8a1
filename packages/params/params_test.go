package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParams_None(t *testing.T) {
	for _, ct := range []string{"", "text/plain", "application/x-www-form-urlencoded; charset=latin1"} {
		got, err := EncodeParams(None(), ct)
		require.NoError(t, err)
		assert.Equal(t, "", got)
	}
}

func TestEncodeParams_Raw(t *testing.T) {
	got, err := EncodeParams(Raw("a=b&a=%ZZ"), "charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "a=b&a=%ZZ", got)
}

func TestEncodeParams_Pairs(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		expected string
	}{
		{
			name:     "ordered duplicates",
			params:   Pairs(F("letter", "a"), F("number", "1"), F("letter", "b")),
			expected: "letter=a&number=1&letter=b",
		},
		{
			name:     "sequence expands in order",
			params:   Pairs(F("x", []string{"3", "1", "2"}), F("y", "z")),
			expected: "x=3&x=1&x=2&y=z",
		},
		{
			name:     "mixed sequence",
			params:   Pairs(F("x", []any{"a", []byte("b"), 3})),
			expected: "x=a&x=b&x=3",
		},
		{
			name:     "escaping",
			params:   Pairs(F("q", "a b&c=d"), F("ü", "é")),
			expected: "q=a+b%26c%3Dd&%C3%BC=%C3%A9",
		},
		{
			name:     "scalars",
			params:   Pairs(F("n", 42), F("ok", true), F("empty", nil)),
			expected: "n=42&ok=true&empty=",
		},
		{
			name:     "from map sorts keys",
			params:   FromMap(map[string]any{"b": "2", "a": "1"}),
			expected: "a=1&b=2",
		},
		{
			name:     "from values",
			params:   FromValues(url.Values{"k": {"2", "1"}, "a": {"x"}}),
			expected: "a=x&k=2&k=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeParams(tt.params, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncodeParams_Charset(t *testing.T) {
	p := Pairs(F("name", "café"), F("raw", []byte{0xff}))

	got, err := EncodeParams(p, "application/x-www-form-urlencoded; charset=ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "name=caf%E9&raw=%FF", got)

	got, err = EncodeParams(p, "application/x-www-form-urlencoded; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "name=caf%C3%A9&raw=%FF", got)
}

func TestEncodeParams_CharsetMismatch(t *testing.T) {
	_, err := EncodeParams(Pairs(F("name", "日本")), "text/plain; charset=latin1")
	require.Error(t, err)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "latin1", encErr.Charset)
	assert.Equal(t, "日本", encErr.Value)

	for _, charset := range []string{"ascii", "us-ascii", "latin1", "iso-8859-1"} {
		t.Run(charset, func(t *testing.T) {
			_, err := EncodeParams(Pairs(F("a", "é€")), "text/plain; charset="+charset)
			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, charset, encErr.Charset)
		})
	}

	_, err = EncodeParams(Pairs(F("a", "€")), "text/plain; charset=latin1")
	assert.Error(t, err)
	_, err = EncodeParams(Pairs(F("a", "é")), "text/plain; charset=ascii")
	assert.Error(t, err)

	got, err := EncodeParams(Pairs(F("a", "plain")), "text/plain; charset=ascii")
	require.NoError(t, err)
	assert.Equal(t, "a=plain", got)
}

func TestLookupCharset(t *testing.T) {
	got, err := Transcode("€", "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, got)

	got, err = Transcode("é", "latin1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe9}, got)

	_, err = LookupCharset("klingon")
	assert.Error(t, err)
}

func TestEncodeParams_UnknownCharset(t *testing.T) {
	_, err := EncodeParams(Pairs(F("a", "b")), "text/plain; charset=klingon")
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Contains(t, encErr.Error(), "unknown charset")
}

func TestEncodeParams_Unstringifiable(t *testing.T) {
	_, err := EncodeParams(Pairs(F("a", struct{}{})), "")
	var encErr *EncodingError
	assert.ErrorAs(t, err, &encErr)

	_, err = EncodeParams(Pairs(F("a", []any{[]string{"nested"}})), "")
	assert.ErrorAs(t, err, &encErr)
}

func TestEncodeParams_RoundTrip(t *testing.T) {
	fields := []Field{
		F("letter", "a"),
		F("letter", "b"),
		F("number", "1"),
		F("letter", "c"),
		F("number", "2"),
		F("save", "Save 2"),
		F("letter", "e & f"),
		F("", "blank name"),
	}

	encoded, err := EncodeParams(Pairs(fields...), "")
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)
}

func TestBuildParams(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		params   Params
		expected string
	}{
		{"no query", "/", Raw("a=b"), "/?a=b"},
		{"existing query", "/?a=b", Pairs(F("c", "d")), "/?a=b&c=d"},
		{"keeps existing order", "/?z=1&a=2", Pairs(F("e", "f")), "/?z=1&a=2&e=f"},
		{"absent params", "/path?x=1", None(), "/path?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildParams(tt.url, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCharset(t *testing.T) {
	assert.Equal(t, "utf-8", Charset("text/html; charset=UTF-8"))
	assert.Equal(t, "latin1", Charset("text/plain;charset=\"latin1\"; format=flowed"))
	assert.Equal(t, "", Charset("application/json"))
}

func TestDecodeText(t *testing.T) {
	got, err := DecodeText([]byte{'c', 'a', 'f', 0xe9}, "latin1")
	require.NoError(t, err)
	assert.Equal(t, "café", got)

	_, err = DecodeText([]byte("x"), "nope")
	assert.Error(t, err)
}
