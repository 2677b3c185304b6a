// Package csvcodec escapes text so it survives a comma-delimited, quote-unaware
// CSV writer, and marks absent values with a sentinel token.
//
// Reserved characters are replaced by placeholder tokens:
//
//	"\n" → <<NL>>    ","  → <<COMMA>>   `"` → <<DQ>>
//	"'"  → <<SQ>>    "\r" → <<CR>>      "<<" → <<LT>>
//
// Escaping "<<" means escaped text never contains a literal token, so Unescape
// is an exact inverse and NullToken can never be produced by Escape.
package csvcodec

import (
	"fmt"
	"strings"
)

// NullToken stands in for an absent value.
const NullToken = "<<NONE>>"

const (
	tokNewline = "<<NL>>"
	tokComma   = "<<COMMA>>"
	tokDQuote  = "<<DQ>>"
	tokSQuote  = "<<SQ>>"
	tokCR      = "<<CR>>"
	tokOpener  = "<<LT>>"
)

var unescapeTokens = map[string]string{
	tokNewline: "\n",
	tokComma:   ",",
	tokDQuote:  `"`,
	tokSQuote:  "'",
	tokCR:      "\r",
	tokOpener:  "<<",
}

// Escape replaces every reserved character in s with its placeholder token.
// It makes a single left-to-right pass.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\n\r,\"'<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			b.WriteString(tokNewline)
		case '\r':
			b.WriteString(tokCR)
		case ',':
			b.WriteString(tokComma)
		case '"':
			b.WriteString(tokDQuote)
		case '\'':
			b.WriteString(tokSQuote)
		case '<':
			if i+1 < len(s) && s[i+1] == '<' {
				b.WriteString(tokOpener)
				i++
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape reverses Escape. Text that is not a known token is copied through.
// It returns an error when s still holds a raw reserved character, which
// means it was never escaped.
func Unescape(s string) (string, error) {
	if strings.ContainsAny(s, "\n\r,\"'") {
		return "", fmt.Errorf("csvcodec: unescaped reserved character in %q", s)
	}
	if !strings.Contains(s, "<<") {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "<<") {
			if end := strings.Index(s[i:], ">>"); end > 0 {
				tok := s[i : i+end+2]
				if plain, ok := unescapeTokens[tok]; ok {
					b.WriteString(plain)
					i += len(tok)
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), nil
}

// EncodeNullable escapes *s, or returns NullToken when s is nil.
func EncodeNullable(s *string) string {
	if s == nil {
		return NullToken
	}
	return Escape(*s)
}

// DecodeNullable reverses EncodeNullable. NullToken decodes to nil.
func DecodeNullable(s string) (*string, error) {
	if s == NullToken {
		return nil, nil
	}
	plain, err := Unescape(s)
	if err != nil {
		return nil, err
	}
	return &plain, nil
}

// IsNull reports whether s is the null sentinel.
func IsNull(s string) bool { return s == NullToken }
