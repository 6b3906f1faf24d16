package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenPattern splits a base name (extension removed) into stem, marker,
// digits and trailing separators. The lazy stem makes the digit run the
// rightmost maximal one.
var tokenPattern = regexp.MustCompile(`^(.*?)(_[vV]|[vV]|_)?([0-9]+)([-_. ]*)$`)

// Components is a filename split around its version token.
type Components struct {
	Stem   string
	Prefix string
	Token  string
	Suffix string
	Ext    string
}

// Width is the number of digit characters in the token, leading zeros
// included.
func (c Components) Width() int {
	return len(c.Token)
}

// String reassembles the filename. It is the exact inverse of Parse.
func (c Components) String() string {
	return c.Stem + c.Prefix + c.Token + c.Suffix + c.Ext
}

// Parse splits filename around its trailing version token.
// Returns ErrNoVersionToken if the name (extension excluded) does not end
// in digits, optionally followed by separator characters.
func Parse(filename string) (Components, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	m := tokenPattern.FindStringSubmatch(base)
	if m == nil {
		return Components{}, fmt.Errorf("%w: %q", ErrNoVersionToken, filename)
	}

	c := Components{
		Stem:   m[1],
		Prefix: m[2],
		Token:  m[3],
		Suffix: m[4],
		Ext:    ext,
	}

	// A bare v glued to a word ("rev01") is part of the word, not a marker.
	if (c.Prefix == "v" || c.Prefix == "V") && endsInLetter(c.Stem) {
		c.Stem += c.Prefix
		c.Prefix = ""
	}

	return c, nil
}

func endsInLetter(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsLetter(r)
}
