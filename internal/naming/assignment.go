package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var assignmentPattern = regexp.MustCompile(`^([A-Z])(\d+)_([^_]+)_([^_]+)_([^_]+)_(\d+)$`)

// Assignment describes a generated course-style name:
//
//	A01_Smith_John_wip_01
//
// Letter and Number identify the assignment, Stage is the pipeline tag
// (wip, blocking, final...) and Version is the starting version.
type Assignment struct {
	Letter    string `json:"letter" yaml:"letter"`
	Number    int    `json:"number" yaml:"number"`
	LastName  string `json:"last_name" yaml:"last_name"`
	FirstName string `json:"first_name" yaml:"first_name"`
	Stage     string `json:"stage" yaml:"stage"`
	Version   int    `json:"version" yaml:"version"`
}

// Validate checks that every field can appear in a generated name.
func (a Assignment) Validate() error {
	if len(a.Letter) != 1 || a.Letter[0] < 'A' || a.Letter[0] > 'Z' {
		return fmt.Errorf("%w: letter %q must be a single uppercase letter", ErrInvalidAssignment, a.Letter)
	}
	if a.Number < 0 || a.Version < 0 {
		return fmt.Errorf("%w: numbers must not be negative", ErrInvalidAssignment)
	}
	fields := []struct {
		name, value string
	}{
		{"last name", a.LastName},
		{"first name", a.FirstName},
		{"stage", a.Stage},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAssignment, f.name)
		}
		if strings.ContainsAny(f.value, "_/\\") {
			return fmt.Errorf("%w: %s %q contains a separator", ErrInvalidAssignment, f.name, f.value)
		}
	}
	return nil
}

// BaseName renders the name without extension. Numbers are zero-padded to
// two digits.
func (a Assignment) BaseName() string {
	return fmt.Sprintf("%s%02d_%s_%s_%s_%02d", a.Letter, a.Number, a.LastName, a.FirstName, a.Stage, a.Version)
}

// FileName validates a and renders it with ext appended.
func (a Assignment) FileName(ext string) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a.BaseName() + ext, nil
}

// ParseAssignment recognizes a generated name. The extension is ignored.
func ParseAssignment(filename string) (Assignment, bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	m := assignmentPattern.FindStringSubmatch(base)
	if m == nil {
		return Assignment{}, false
	}
	number, err := strconv.Atoi(m[2])
	if err != nil {
		return Assignment{}, false
	}
	version, err := strconv.Atoi(m[6])
	if err != nil {
		return Assignment{}, false
	}
	return Assignment{
		Letter:    m[1],
		Number:    number,
		LastName:  m[3],
		FirstName: m[4],
		Stage:     m[5],
		Version:   version,
	}, true
}
