package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/room"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache stores marshaled subject catalogs in Redis and falls back to
// the underlying source on a miss. Keys expire with jitter so subjects don't
// all reload at once.
type QuestionCache struct {
	client *redis.Client
	source room.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, source room.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) ListSubjects(ctx context.Context) ([]domain.SubjectInfo, error) {
	return c.source.ListSubjects(ctx)
}

func (c *QuestionCache) GetQuestions(ctx context.Context, subjectID string) ([]domain.Question, error) {
	key := c.key(subjectID)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(cached, &questions); err == nil {
			return questions, nil
		}
		// Unreadable cache entries are treated as misses.
		_ = c.client.Del(ctx, key).Err()
	}

	result, err, _ := c.sf.Do(subjectID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(cached, &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := c.source.GetQuestions(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) key(subjectID string) string {
	return fmt.Sprintf("quizroom:questions:%s", subjectID)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
