package csvcodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/csvcodec"
)

func TestEscape_ReservedCharacters(t *testing.T) {
	cases := map[string]string{
		"line1\nline2": "line1<<NL>>line2",
		"a,b":          "a<<COMMA>>b",
		`say "hi"`:     "say <<DQ>>hi<<DQ>>",
		"it's":         "it<<SQ>>s",
		"crlf\r\n":     "crlf<<CR>><<NL>>",
		"a << b":       "a <<LT>> b",
		"plain text":   "plain text",
		"":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, csvcodec.Escape(in), "Escape(%q)", in)
	}
}

func TestEscape_OutputHasNoReservedCharacters(t *testing.T) {
	got := csvcodec.Escape("Bring: towels, \"sunscreen\"\nand 'snacks'")
	assert.NotContains(t, got, ",")
	assert.NotContains(t, got, "\n")
	assert.NotContains(t, got, `"`)
	assert.NotContains(t, got, "'")
}

func TestUnescape_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"Line one\nLine two, with comma\n\"quoted\" and 'single'",
		"<<NL>> literal token text",
		"<<NONE>>",
		"None",
		"<\n",
		"x<<<",
		"<<>>",
		"a < b > c",
		"ends with <",
		"São Paulo → Arraial do Cabo, RJ",
	}
	for _, in := range inputs {
		got, err := csvcodec.Unescape(csvcodec.Escape(in))
		require.NoError(t, err, in)
		assert.Equal(t, in, got)
	}
}

func TestUnescape_UnknownTokenPassesThrough(t *testing.T) {
	got, err := csvcodec.Unescape("<<WHAT>>")
	require.NoError(t, err)
	assert.Equal(t, "<<WHAT>>", got)
}

func TestUnescape_RejectsRawReservedCharacter(t *testing.T) {
	_, err := csvcodec.Unescape("a,b")
	assert.Error(t, err)
}

func TestEscape_NeverProducesNullToken(t *testing.T) {
	assert.NotEqual(t, csvcodec.NullToken, csvcodec.Escape(csvcodec.NullToken))
	assert.False(t, csvcodec.IsNull(csvcodec.Escape("<<NONE>>")))
}

func TestNullable(t *testing.T) {
	assert.Equal(t, csvcodec.NullToken, csvcodec.EncodeNullable(nil))

	got, err := csvcodec.DecodeNullable(csvcodec.NullToken)
	require.NoError(t, err)
	assert.Nil(t, got)

	text := "None"
	got, err = csvcodec.DecodeNullable(csvcodec.EncodeNullable(&text))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "None", *got)

	literal := csvcodec.NullToken
	got, err = csvcodec.DecodeNullable(csvcodec.EncodeNullable(&literal))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, csvcodec.NullToken, *got)
}
