package model

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// splitStringLiteral separates a Python string literal into its prefix
// letters (lowercased), its quote delimiter and its body.
func splitStringLiteral(raw string) (prefix, quote, body string, ok bool) {
	i := 0
	for i < len(raw) && strings.IndexByte("rRbBuUfFtT", raw[i]) >= 0 {
		i++
	}
	prefix = strings.ToLower(raw[:i])
	rest := raw[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(rest) >= 2*len(q) && strings.HasPrefix(rest, q) && strings.HasSuffix(rest, q) {
			return prefix, q, rest[len(q) : len(rest)-len(q)], true
		}
	}
	return "", "", "", false
}

// decodeString returns the value of a str literal. Bytes, f-strings and
// t-strings are not plain constants and report ok=false.
func decodeString(raw string) (string, bool) {
	prefix, _, body, ok := splitStringLiteral(raw)
	if !ok || strings.ContainsAny(prefix, "bft") {
		return "", false
	}
	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body), true
}

func isBytesLiteral(raw string) bool {
	prefix, _, _, ok := splitStringLiteral(raw)
	return ok && strings.Contains(prefix, "b")
}

// unescape processes backslash escapes the way the Python tokenizer does
// for a non-raw str literal. Unknown escapes keep their backslash.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+width <= len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += width
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			r, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(r))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

// pyRepr renders s the way Python's repr() renders a str.
func pyRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x100 && !unicode.IsPrint(r):
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000 && !unicode.IsPrint(r):
			fmt.Fprintf(&b, `\u%04x`, r)
		case !unicode.IsPrint(r):
			fmt.Fprintf(&b, `\U%08x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// normalizeInt renders an integer literal in decimal. Literals that do not
// parse are returned unchanged.
func normalizeInt(text string) string {
	n, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return text
	}
	return n.String()
}
