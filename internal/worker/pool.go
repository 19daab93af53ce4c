package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"clarity-gateway/internal/models"
	"clarity-gateway/internal/services"
)

// QueueLearningItems holds serialized LearningItemPayload entries waiting
// to be pushed to the learning-item store.
const QueueLearningItems = "queue:learning-items"

type Pool struct {
	redis       *redis.Client
	learning    *services.LearningService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, learning *services.LearningService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		learning:    learning,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

// Enqueue pushes a payload onto the learning-item queue. Callers treat
// enqueue failures as background warnings, never as request errors.
func (p *Pool) Enqueue(ctx context.Context, payload models.LearningItemPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.redis.LPush(ctx, QueueLearningItems, data).Err()
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, QueueLearningItems).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var payload models.LearningItemPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			log.Printf("Worker %d: failed to parse learning payload: %v", id, err)
			continue
		}

		// One attempt per payload. A failed submission is logged and
		// dropped rather than requeued.
		if err := p.learning.Submit(ctx, payload); err != nil {
			log.Printf("Worker %d: dropped learning payload for user %s (skill %q): %v",
				id, payload.UserID, payload.Skill, err)
			continue
		}

		log.Printf("Worker %d: submitted %d learning items for skill %q",
			id, len(payload.Items), payload.Skill)
	}
}
