package convention

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser capitalizes lower-case feature names so resources come
// out in canonical form regardless of folder casing.
var titleCaser = cases.Title(language.English, cases.NoLower)

// InferResource derives the resource name from an endpoint's source
// location (a forward-slash path relative to its project root).
//
// The segment following the feature-grouping anchor folder is the raw
// feature name; absence of the anchor fails inference, in which case
// declared permissions are trusted as custom and no new permission is
// generated. The raw name then has at most one conventional suffix
// stripped, is looked up in the irregular-noun table, and finally
// falls through to the pluralization heuristic.
func InferResource(sourceLocation string) (string, bool) {
	feature, ok := featureSegment(sourceLocation)
	if !ok {
		return "", false
	}

	word := stripSuffix(feature)
	if word == "" {
		return "", false
	}

	if canonical, ok := irregularResources[strings.ToLower(word)]; ok {
		return canonical, true
	}

	return capitalize(Pluralize(word)), true
}

// featureSegment locates the anchor segment and returns the segment
// after it. The first anchor occurrence wins.
func featureSegment(sourceLocation string) (string, bool) {
	segments := strings.Split(sourceLocation, "/")
	for i, segment := range segments {
		if segment == AnchorSegment && i+1 < len(segments) {
			return segments[i+1], true
		}
	}
	return "", false
}

// stripSuffix removes at most one conventional suffix from the raw
// feature name. First match wins and only one removal happens, so
// "PolicyServiceManagement" becomes "PolicyService", not "Policy".
func stripSuffix(feature string) string {
	for _, suffix := range strippableSuffixes {
		if len(feature) > len(suffix) && strings.HasSuffix(feature, suffix) {
			return feature[:len(feature)-len(suffix)]
		}
	}
	return feature
}

// capitalize upper-cases the first word of an all-lower-case name.
// Mixed-case names are left untouched to preserve acronyms and
// PascalCase folder names.
func capitalize(word string) string {
	if word == strings.ToLower(word) {
		return titleCaser.String(word)
	}
	return word
}
