package reminders

import (
	"regexp"
	"strings"

	"github.com/jonesy-ops/ash/internal/model"
)

var pureNumeric = regexp.MustCompile(`^\d+$`)

// meaninglessTemplates catches placeholder bodies that pass the bare
// length/word-char check in model.ValidText but carry no actual content.
var meaninglessTemplates = map[string]bool{
	"test": true, "testing": true, "asdf": true, "n/a": true, "none": true,
}

// ValidText reports whether a reminder body satisfies spec.md §4.9's
// validation rules: the structural 3-2000 character check plus rejection
// of single-letter, pure-numeric, and known meaningless bodies.
func ValidText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !model.ValidText(trimmed) {
		return false
	}
	if len([]rune(trimmed)) == 1 {
		return false
	}
	if pureNumeric.MatchString(trimmed) {
		return false
	}
	if meaninglessTemplates[strings.ToLower(trimmed)] {
		return false
	}
	return true
}
