package identity

import (
	"regexp"
	"strings"
)

// Some calendars arrive with fullwidth parenthesis variants; normalize
// them before matching.
var parenReplacer = strings.NewReplacer("（", "(", "）", ")")

var nameRe = regexp.MustCompile(`\(([^()]*)\)`)

// ExtractName pulls a tutor name out of a calendar summary like
// "NCSS Tutoring (Firstname Lastname)". The last parenthesised group
// wins. Returns false when the summary has no parenthesised group.
func ExtractName(summary string) (string, bool) {
	normalized := parenReplacer.Replace(summary)
	ms := nameRe.FindAllStringSubmatch(normalized, -1)
	if len(ms) == 0 {
		return "", false
	}
	return ms[len(ms)-1][1], true
}
