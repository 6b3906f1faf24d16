package naming

import (
	"path/filepath"
	"strings"
)

// DefaultInitialToken is appended to names that carry no version token.
const DefaultInitialToken = "02"

// Increment returns c with its token advanced by one.
//
// The token keeps its width while the value fits ("001" -> "002",
// "009" -> "010") and grows by one digit when it does not ("99" -> "100").
// The arithmetic is done on the decimal string, so tokens of any length
// increment without overflow.
func Increment(c Components) Components {
	c.Token = incrementDigits(c.Token)
	return c
}

func incrementDigits(s string) string {
	if s == "" {
		return "1"
	}
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}

// AppendInitialToken inserts DefaultInitialToken before the extension:
// "character.ma" becomes "character02.ma".
func AppendInitialToken(filename string) string {
	return appendToken(filename, DefaultInitialToken)
}

func appendToken(filename, token string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + token + ext
}
