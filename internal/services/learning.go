package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"clarity-gateway/internal/extract"
	"clarity-gateway/internal/models"
)

// LearningService submits extracted learning items to the learning-item
// store. Delivery is strictly best-effort: one POST, no retry, no backoff.
// Chat continuity never depends on this call succeeding.
type LearningService struct {
	baseURL    string
	httpClient *http.Client
}

func NewLearningService(baseURL string, timeout time.Duration) *LearningService {
	return &LearningService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BuildPayload groups raw task and resource section lines into
// numbered-heading blocks and tags each block with its type. Empty inputs
// produce a payload with no items, which Submit accepts.
func BuildPayload(userID, persona, skill string, taskLines, resourceLines []string) models.LearningItemPayload {
	payload := models.LearningItemPayload{
		UserID:  userID,
		Persona: persona,
		Skill:   skill,
	}
	for _, block := range extract.GroupBlocks(taskLines) {
		payload.Items = append(payload.Items, models.LearningItem{Type: models.ItemTask, Content: block})
	}
	for _, block := range extract.GroupBlocks(resourceLines) {
		payload.Items = append(payload.Items, models.LearningItem{Type: models.ItemResource, Content: block})
	}
	return payload
}

// Submit posts one batch to the learning-item store.
func (s *LearningService) Submit(ctx context.Context, payload models.LearningItemPayload) error {
	return doJSON(ctx, s.httpClient, http.MethodPost, s.baseURL+"/api/learning-items", "", payload, nil)
}
