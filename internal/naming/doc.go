// Package naming computes version names for scene files.
//
// Everything in this package is pure computation over strings: no file
// system access, no clocks (timestamps are passed in), no locks. Callers
// supply a snapshot of the names already taken in the target directory and
// get back a proposed name or a typed error.
//
// # Anatomy of a versioned name
//
//	J02_Smith_John_blocking_wip_01.ma
//	└────────── Stem ─────────┘│└┘ └┘
//	                       Prefix │  Ext
//	                           Token
//
// The token is the rightmost maximal run of ASCII digits in the name
// (extension excluded). Earlier digit runs such as the "02" in "J02" belong
// to the stem and are never touched. The prefix is the marker right before
// the digits: "_v", "_V", "v", "V", "_" or nothing. Only separator
// characters may follow the digits (kept as Suffix); a letter after the
// digits means the name carries no token at all.
//
// When a name contains a marker followed by two digit runs ("shot_v01_02")
// the rightmost run wins; "_v01" is stem.
//
// Parse followed by Components.String is lossless for every name Parse
// accepts.
package naming
