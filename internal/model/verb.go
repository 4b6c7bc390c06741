package model

import "strings"

// Verb is an HTTP method recognized by the endpoint extractor.
// Only the five verbs below participate in permission inference;
// registration calls for any other method are discarded.
type Verb string

// Recognized HTTP verbs.
const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPut    Verb = "PUT"
	VerbPatch  Verb = "PATCH"
	VerbDelete Verb = "DELETE"
)

// ParseVerb parses a verb name case-insensitively.
// The second return value is false for unrecognized methods
// (e.g. HEAD, OPTIONS), which the extractor ignores.
func ParseVerb(s string) (Verb, bool) {
	switch strings.ToUpper(s) {
	case "GET":
		return VerbGet, true
	case "POST":
		return VerbPost, true
	case "PUT":
		return VerbPut, true
	case "PATCH":
		return VerbPatch, true
	case "DELETE":
		return VerbDelete, true
	default:
		return "", false
	}
}

// String returns the verb in canonical upper-case form.
func (v Verb) String() string {
	return string(v)
}
