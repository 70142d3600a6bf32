package normalizer

import "strings"

// holdingField identifies which normalized field a breakdown category
// feeds into
type holdingField int

const (
	fieldNone holdingField = iota
	fieldFII
	fieldDII
)

// fiiSynonyms are category names that name the foreign-institutional
// holding itself. Matched case-insensitively; the first match sets the
// FII value.
var fiiSynonyms = map[string]bool{
	"fii":                             true,
	"fpi":                             true,
	"fii/fpi":                         true,
	"foreign institutional investors": true,
	"foreign institutions":            true,
	"foreign portfolio investors":     true,
}

// diiSynonyms are categories accumulated additively into the DII value.
// Sources report domestic institutions either as one aggregate line or
// split across component categories; components must add up, not
// overwrite each other.
var diiSynonyms = map[string]bool{
	"dii":                              true,
	"domestic institutional investors": true,
	"domestic institutions":            true,
	"mutual funds":                     true,
	"mutual fund":                      true,
	"insurance companies":              true,
	"insurance":                        true,
	"banks":                            true,
	"financial institutions":           true,
	"financial institutions/banks":     true,
}

// classifyCategory maps a raw category name to a holding field
func classifyCategory(name string) holdingField {
	key := strings.ToLower(strings.TrimSpace(name))
	if fiiSynonyms[key] {
		return fieldFII
	}
	if diiSynonyms[key] {
		return fieldDII
	}
	return fieldNone
}
