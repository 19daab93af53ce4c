package extract

import (
	"regexp"
	"strings"

	"clarity-gateway/internal/models"
)

var (
	itemHeading   = regexp.MustCompile(`^\d+\.\s\*\*`)
	headingMarkup = regexp.MustCompile(`^\d+\.\s\*\*(.+?)\*\*$`)
	itemNumber    = regexp.MustCompile(`^\d+\.\s*`)

	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*|__(.*?)__`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*|_(.*?)_`)
	codePattern   = regexp.MustCompile("`([^`]+)`")
)

// GroupItems splits the lines of one section into ordered items. A new item
// opens on every numbered, bold-headed line ("N. **Heading**"); lines before
// the first such heading form an implicit first item so content is never
// dropped, and the last open item is always flushed.
func GroupItems(lines []string, typ models.ItemType) []models.ExtractedItem {
	var items []models.ExtractedItem
	var cur *models.ExtractedItem
	for _, line := range lines {
		if itemHeading.MatchString(line) {
			if cur != nil {
				items = append(items, *cur)
			}
			cur = &models.ExtractedItem{Type: typ, HeadingText: headingText(line)}
			continue
		}
		if cur == nil {
			cur = &models.ExtractedItem{Type: typ}
		}
		cur.BodyLines = append(cur.BodyLines, line)
	}
	if cur != nil {
		items = append(items, *cur)
	}
	return items
}

// GroupBlocks joins each numbered item's lines back into one newline-joined
// block, the shape the learning-item store accepts.
func GroupBlocks(lines []string) []string {
	var blocks []string
	var cur []string
	for _, line := range lines {
		if itemHeading.MatchString(line) && len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

func headingText(line string) string {
	if m := headingMarkup.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(StripMarkdown(m[1]))
	}
	// Heading with trailing text after the bold span; drop the numbering and
	// whatever markers remain.
	return strings.TrimSpace(StripMarkdown(itemNumber.ReplaceAllString(line, "")))
}

// StripMarkdown removes inline emphasis and code markers for plain-text
// display contexts. Body lines are stored unstripped.
func StripMarkdown(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1$2")
	s = italicPattern.ReplaceAllString(s, "$1$2")
	s = codePattern.ReplaceAllString(s, "$1")
	return s
}
