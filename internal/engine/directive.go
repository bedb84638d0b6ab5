// Package engine holds the pure budget computations: note directives,
// reallocation, variance, currency conversion, ranking and grouping.
//
// Every function takes a core.Table or rows by value and returns a derived
// result. Inputs are never mutated, so a cached table can serve any number
// of concurrent callers.
package engine

import (
	"regexp"
)

var directivePattern = regexp.MustCompile(`(?i)\b(?:see|already\s+in)\s+line\s*#?\s*(\d+(?:\.\d+)?[a-z]?)\b`)

// Directive is a parsed reallocation instruction found in a note.
type Directive struct {
	TargetID string
}

// ParseDirective extracts the target line from notes such as
// "See line 12" or "Already in Line #4b". The first match wins.
func ParseDirective(note string) (Directive, bool) {
	m := directivePattern.FindStringSubmatch(note)
	if m == nil {
		return Directive{}, false
	}
	return Directive{TargetID: m[1]}, true
}
