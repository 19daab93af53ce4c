package models

// ItemType distinguishes tasks from resources.
type ItemType string

const (
	ItemTask     ItemType = "task"
	ItemResource ItemType = "resource"
)

// ExtractedItem is one numbered entry recovered from a task or resource
// section of an AI response. HeadingText has its markdown markers stripped;
// BodyLines keep their original markdown for rich rendering downstream.
type ExtractedItem struct {
	Type        ItemType `json:"type"`
	HeadingText string   `json:"heading_text"`
	BodyLines   []string `json:"body_lines"`
}

// SkillBucket accumulates everything extracted for one skill label over the
// lifetime of a chat client. Entries are appended, never removed.
type SkillBucket struct {
	Skill     string          `json:"skill"`
	Tasks     []ExtractedItem `json:"tasks"`
	Resources []ExtractedItem `json:"resources"`
}

// LearningItem is the wire form the learning-item store accepts: one
// numbered block joined back into a single string.
type LearningItem struct {
	Type    ItemType `json:"type"`
	Content string   `json:"content"`
}

// LearningItemPayload is one best-effort batch for the learning-item store.
type LearningItemPayload struct {
	UserID  string         `json:"userId"`
	Persona string         `json:"persona"`
	Skill   string         `json:"skill"`
	Items   []LearningItem `json:"items"`
}
