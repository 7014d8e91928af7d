package stringlit

import (
	"fmt"
	"strconv"
	"strings"
)

// Decode decodes a C0 string literal token text, quotes included.
//
// Allowed escapes: \n \t \v \b \r \f \a \\ \' \". A string literal cannot
// contain \0.
func Decode(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", fmt.Errorf("invalid string literal %s", lit)
	}
	return unescape(lit[1:len(lit)-1], false)
}

// DecodeChar decodes a C0 character literal such as 'a' or '\0'.
func DecodeChar(lit string) (byte, error) {
	if len(lit) < 3 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return 0, fmt.Errorf("invalid character literal %s", lit)
	}
	s, err := unescape(lit[1:len(lit)-1], true)
	if err != nil {
		return 0, err
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("character literal %s must contain exactly one character", lit)
	}
	return s[0], nil
}

func unescape(s string, char bool) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			if ch < ' ' || ch > '~' {
				return "", fmt.Errorf("character %q is not printable ASCII", ch)
			}
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("invalid escape at end of literal")
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'b':
			b.WriteByte('\b')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'a':
			b.WriteByte('\a')
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		case '0':
			if !char {
				return "", fmt.Errorf("\\0 is only allowed in character literals")
			}
			b.WriteByte(0)
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}

// ParseInt validates an integer literal and returns its 32-bit value.
//
// Decimal literals may be at most 2147483648, which denotes INT_MIN (the
// only way to spell it is -2147483648). Hex literals have at most 8 digits
// and are reinterpreted as signed, so 0xFFFFFFFF is -1.
func ParseInt(raw string) (int32, error) {
	if hex, ok := cutHexPrefix(raw); ok {
		if hex == "" || len(hex) > 8 {
			return 0, fmt.Errorf("hex constant %s out of range", raw)
		}
		u, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid hex constant %s", raw)
		}
		return int32(uint32(u)), nil
	}
	if len(raw) > 1 && raw[0] == '0' {
		return 0, fmt.Errorf("decimal constant %s has a leading zero", raw)
	}
	u, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal constant %s", raw)
	}
	if u > 2147483648 {
		return 0, fmt.Errorf("decimal constant %s out of range", raw)
	}
	return int32(uint32(u)), nil
}

func cutHexPrefix(raw string) (string, bool) {
	if s, ok := strings.CutPrefix(raw, "0x"); ok {
		return s, true
	}
	return strings.CutPrefix(raw, "0X")
}
