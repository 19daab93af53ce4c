// Package extract recovers structured tasks and resources from the free-form
// markdown the Amigo personas produce. The matching rules are deliberately
// lenient and line-based: the personas are prompted to emit
// "### Task List for X" / "### Resources for X" headings followed by
// numbered, bold-headed entries, and this package mirrors those conventions
// exactly rather than parsing full markdown.
package extract

import (
	"regexp"
	"strings"
)

var (
	taskHeading     = regexp.MustCompile(`(?i)^#+\s*.*task.*$`)
	resourceHeading = regexp.MustCompile(`(?i)^#+\s*.*resources.*$`)
	anyHeading      = regexp.MustCompile(`^#+\s`)
)

// TaskLines returns the content lines of the first section whose heading
// mentions "task", in order.
func TaskLines(text string) []string {
	return sectionLines(text, taskHeading)
}

// ResourceLines returns the content lines of the first section whose heading
// mentions "resources", in order.
func ResourceLines(text string) []string {
	return sectionLines(text, resourceHeading)
}

// sectionLines collects the lines strictly between the first heading matched
// by open and the next heading of any level, both exclusive. An unclosed
// section runs to the end of the text. Lines are trimmed and blanks dropped.
// Only the first matching heading is honored.
func sectionLines(text string, open *regexp.Regexp) []string {
	var out []string
	inSection := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if !inSection {
			if open.MatchString(line) {
				inSection = true
			}
			continue
		}
		if anyHeading.MatchString(line) {
			break
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
