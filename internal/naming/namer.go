package naming

import (
	"errors"
	"fmt"
	"path/filepath"
)

// DefaultMaxAttempts bounds the collision loop. Collisions are rare in
// practice; the bound only stops pathological directories from spinning.
const DefaultMaxAttempts = 10000

// Options configures a Namer.
type Options struct {
	// CaseInsensitive compares candidates against the listing after case
	// folding. Default is case-sensitive.
	CaseInsensitive bool

	// MaxAttempts is the number of candidates tried before giving up with
	// ErrVersionSpaceExhausted. Zero means DefaultMaxAttempts.
	MaxAttempts int

	// InitialToken is appended by Next to names without a token.
	// Empty means DefaultInitialToken.
	InitialToken string

	// DefaultExtension is added by Next to names with no extension at all
	// (".ma" for Maya scenes). Empty disables it.
	DefaultExtension string

	// AppendWhenMissing makes Next fall back to the initial token instead of
	// returning ErrNoVersionToken.
	AppendWhenMissing bool
}

// DefaultOptions mirrors the SavePlus defaults.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:       DefaultMaxAttempts,
		InitialToken:      DefaultInitialToken,
		AppendWhenMissing: true,
	}
}

// Namer proposes next-version names. It holds only configuration and is
// safe for concurrent use.
type Namer struct {
	opts Options
}

// New creates a Namer, filling zero-valued limits with defaults.
func New(opts Options) *Namer {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.InitialToken == "" {
		opts.InitialToken = DefaultInitialToken
	}
	return &Namer{opts: opts}
}

// Options returns the effective options.
func (n *Namer) Options() Options {
	return n.opts
}

// Listing builds a Listing using the namer's case policy.
func (n *Namer) Listing(names []string) Listing {
	return NewListing(names, n.opts.CaseInsensitive)
}

// AppendInitialToken inserts the configured initial token before the
// extension.
func (n *Namer) AppendInitialToken(filename string) string {
	return appendToken(filename, n.opts.InitialToken)
}

// NextAvailableName increments filename's token until the result is absent
// from taken. Each retry increments the previous candidate, not
// filename, so the search walks upward through the version space.
//
// The result depends only on the inputs. Returns ErrNoVersionToken when
// filename has no token and ErrVersionSpaceExhausted when MaxAttempts
// candidates are all taken.
func (n *Namer) NextAvailableName(taken []string, filename string) (string, error) {
	c, err := Parse(filename)
	if err != nil {
		return "", err
	}
	return n.firstFree(n.Listing(taken), Increment(c), filename)
}

// LineageKey is the package LineageKey after the default extension has
// been applied, so "shot" and the "shot02.ma" that Next produces for it
// share a key.
func (n *Namer) LineageKey(filename string) string {
	if n.opts.DefaultExtension != "" && filepath.Ext(filename) == "" {
		filename += n.opts.DefaultExtension
	}
	return LineageKey(filename)
}

// Next applies the full save-plus policy to filename: the default extension
// for extensionless names, the initial token for names without one, then
// collision avoidance against taken.
func (n *Namer) Next(taken []string, filename string) (string, error) {
	name := filename
	if n.opts.DefaultExtension != "" && filepath.Ext(name) == "" {
		name += n.opts.DefaultExtension
	}

	listing := n.Listing(taken)

	c, err := Parse(name)
	switch {
	case err == nil:
		return n.firstFree(listing, Increment(c), filename)
	case errors.Is(err, ErrNoVersionToken) && n.opts.AppendWhenMissing:
		seeded, perr := Parse(n.AppendInitialToken(name))
		if perr != nil {
			return "", perr
		}
		return n.firstFree(listing, seeded, filename)
	default:
		return "", err
	}
}

func (n *Namer) firstFree(listing Listing, candidate Components, origin string) (string, error) {
	for i := 0; i < n.opts.MaxAttempts; i++ {
		name := candidate.String()
		if !listing.Contains(name) {
			return name, nil
		}
		candidate = Increment(candidate)
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrVersionSpaceExhausted, origin, n.opts.MaxAttempts)
}

var defaultNamer = New(DefaultOptions())

// NextAvailableName runs the collision loop with default options.
func NextAvailableName(taken []string, filename string) (string, error) {
	return defaultNamer.NextAvailableName(taken, filename)
}
