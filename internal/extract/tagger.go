package extract

import (
	"regexp"
	"strings"
)

var skillPattern = regexp.MustCompile(`(?i)### (?:Task List|Resources) for (.+)`)

// InferSkill pulls the skill label out of a "### Task List for X" or
// "### Resources for X" heading. Only the first match counts: a response
// covering several skills still yields a single label. Returns "" when no
// such heading exists.
func InferSkill(text string) string {
	m := skillPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
