package convention

import (
	"github.com/permaudit/permaudit/internal/model"
)

// AnchorSegment is the feature-grouping folder that anchors resource
// inference: the path segment following it is the raw feature name.
const AnchorSegment = "Features"

// strippableSuffixes are removed from a raw feature name before
// pluralization. At most one suffix is stripped; first match wins.
// Order matters only for documentation; no entry is a suffix of a
// longer entry's remainder.
var strippableSuffixes = []string{
	"Management",
	"Service",
	"Services",
	"Gateway",
	"Processing",
	"Handler",
	"Handlers",
	"Controller",
	"Controllers",
	"Feature",
	"Features",
}

// irregularResources maps common domain nouns (matched
// case-insensitively) to their canonical resource form. Words not in
// the table fall through to the pluralization heuristic.
var irregularResources = map[string]string{
	"user":           "Users",
	"role":           "Roles",
	"auth":           "Auth",
	"authentication": "Auth",
	"authorization":  "Auth",
	"person":         "People",
	"people":         "People",
	"child":          "Children",
	"staff":          "Staff",
	"admin":          "Admins",
}

// Rules holds the verb-to-action table for one scan. Resource
// inference constants are package-level; only the action table is
// carried per scan so a future custom mapping has a place to live.
type Rules struct {
	// verbToAction maps HTTP verbs to permission action names.
	verbToAction map[model.Verb]string
}

// DefaultRules returns the convention's default verb-to-action table:
// GET reads, POST creates, PUT and PATCH update, DELETE deletes.
func DefaultRules() *Rules {
	return &Rules{
		verbToAction: map[model.Verb]string{
			model.VerbGet:    "Read",
			model.VerbPost:   "Create",
			model.VerbPut:    "Update",
			model.VerbPatch:  "Update",
			model.VerbDelete: "Delete",
		},
	}
}

// Action returns the action name for a verb. The second return value
// is false for verbs outside the table, in which case no permission
// can be composed.
func (r *Rules) Action(verb model.Verb) (string, bool) {
	action, ok := r.verbToAction[verb]
	return action, ok
}
