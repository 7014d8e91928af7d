package stringlit

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestDecodeString(t *testing.T) {
	got, err := Decode(`"a\nb\t\"c\"\\\'"`)
	be.Err(t, err, nil)
	be.Equal(t, got, "a\nb\t\"c\"\\'")
}

func TestDecodeStringRejects(t *testing.T) {
	cases := []string{`"\0"`, `"\q"`, `"\x41"`, `"abc\"`}
	for _, lit := range cases {
		t.Run(lit, func(t *testing.T) {
			_, err := Decode(lit)
			be.True(t, err != nil)
		})
	}
}

func TestDecodeChar(t *testing.T) {
	cases := []struct {
		lit  string
		want byte
	}{
		{`'a'`, 'a'},
		{`'\0'`, 0},
		{`'\n'`, '\n'},
		{`'\''`, '\''},
		{`'"'`, '"'},
	}
	for _, tc := range cases {
		t.Run(tc.lit, func(t *testing.T) {
			got, err := DecodeChar(tc.lit)
			be.Err(t, err, nil)
			be.Equal(t, got, tc.want)
		})
	}
	_, err := DecodeChar(`'ab'`)
	be.Err(t, err, "exactly one character")
	_, err = DecodeChar(`'\d'`)
	be.Err(t, err, "invalid escape")
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		raw  string
		want int32
	}{
		{"0", 0},
		{"42", 42},
		{"2147483647", 2147483647},
		{"2147483648", -2147483648},
		{"0x7fffffff", 2147483647},
		{"0xFFFFFFFF", -1},
		{"0x80000000", -2147483648},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseInt(tc.raw)
			be.Err(t, err, nil)
			be.Equal(t, got, tc.want)
		})
	}
}

func TestParseIntRejects(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"2147483649", "out of range"},
		{"0123", "leading zero"},
		{"0x100000000", "out of range"},
		{"0x", "out of range"},
		{"12ab", "invalid decimal"},
		{"0xZZ", "invalid hex"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			_, err := ParseInt(tc.raw)
			be.Err(t, err, tc.want)
		})
	}
}
