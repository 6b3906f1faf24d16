package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// LineageKey identifies the logical file behind a versioned name.
//
// The token and its marker are dropped, trailing separators are trimmed
// from the stem, and the rest is NFC-normalized and case-folded.
// "Character_v001.ma" and "character_v009.MA" share a key, as do
// "character.ma" and "character02.ma". A name without a token is keyed
// like the name its first save produces, so "character_.ma" and
// "character_02.ma" also share a key.
func LineageKey(filename string) string {
	c, err := Parse(filename)
	if err != nil {
		c, err = Parse(AppendInitialToken(filename))
		if err != nil {
			return foldKey(filename)
		}
	}
	return foldKey(lineageBase(c))
}

// tokenOnlyKey groups extensionless names that are nothing but a token
// ("07", "08").
const tokenOnlyKey = "#"

func lineageBase(c Components) string {
	if key := strings.TrimRight(c.Stem, separators) + c.Ext; key != "" {
		return key
	}
	if c.Prefix != "" {
		return c.Prefix
	}
	return tokenOnlyKey
}

const separators = "_-. "

func foldKey(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
