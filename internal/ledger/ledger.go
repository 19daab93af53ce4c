// Package ledger accumulates extracted tasks and resources per skill label
// for the lifetime of one chat client.
package ledger

import (
	"sync"

	"clarity-gateway/internal/models"
)

// Ledger maps skill labels to their accumulated items. Buckets only ever
// grow: Merge appends and never replaces, so callers must extract and merge
// each AI response exactly once (the send pipeline is the single call site).
// Safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	buckets map[string]*models.SkillBucket
}

func New() *Ledger {
	return &Ledger{buckets: make(map[string]*models.SkillBucket)}
}

// Merge appends tasks and resources to the bucket for skill, creating it if
// absent. An empty skill label is a no-op: extraction without an
// identifiable skill is discarded.
func (l *Ledger) Merge(skill string, tasks, resources []models.ExtractedItem) {
	if skill == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[skill]
	if !ok {
		b = &models.SkillBucket{Skill: skill}
		l.buckets[skill] = b
	}
	b.Tasks = append(b.Tasks, tasks...)
	b.Resources = append(b.Resources, resources...)
}

// Get returns a copy of the bucket for skill, or an empty bucket when the
// skill has never been seen.
func (l *Ledger) Get(skill string) models.SkillBucket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.buckets[skill]
	if !ok {
		return models.SkillBucket{Skill: skill}
	}
	return copyBucket(b)
}

// All returns a copy of the full mapping for UI enumeration.
func (l *Ledger) All() map[string]models.SkillBucket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]models.SkillBucket, len(l.buckets))
	for skill, b := range l.buckets {
		out[skill] = copyBucket(b)
	}
	return out
}

func copyBucket(b *models.SkillBucket) models.SkillBucket {
	cp := models.SkillBucket{Skill: b.Skill}
	cp.Tasks = append(cp.Tasks, b.Tasks...)
	cp.Resources = append(cp.Resources, b.Resources...)
	return cp
}
