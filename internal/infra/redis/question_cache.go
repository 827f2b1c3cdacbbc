package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"brainy-quiz-service/internal/app"
	"brainy-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache layers Redis over another ContentStore for the hot path,
// FetchQuestionsForStage. A stage's questions are cached as one JSON blob:
//
//	SET quiz:stage:{stageID}:questions {json} EX ttl
//
// Every other call delegates to the inner store.
type QuestionCache struct {
	client *redis.Client
	inner  app.ContentStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, inner app.ContentStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FetchQuestionsForStage(ctx context.Context, stageID string) ([]domain.Question, error) {
	key := c.questionsKey(stageID)

	if questions, ok := c.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(stageID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := c.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.inner.FetchQuestionsForStage(ctx, stageID)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(questions); err == nil {
			// best-effort: a failed cache write must not fail the fetch
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) LoadInitialDataIfNeeded(ctx context.Context) error {
	return c.inner.LoadInitialDataIfNeeded(ctx)
}

func (c *QuestionCache) FetchStagesByCategory(ctx context.Context, category domain.Category) ([]domain.Stage, error) {
	return c.inner.FetchStagesByCategory(ctx, category)
}

func (c *QuestionCache) GetCategoryStageStats(ctx context.Context, userID string, category domain.Category) (domain.CategoryStats, error) {
	return c.inner.GetCategoryStageStats(ctx, userID, category)
}

func (c *QuestionCache) CreateStageResult(ctx context.Context, userID, stageID string, score int, timeSpent time.Duration) (domain.StageResult, error) {
	return c.inner.CreateStageResult(ctx, userID, stageID, score, timeSpent)
}

func (c *QuestionCache) FetchStageResults(ctx context.Context, userID string) ([]domain.StageResult, error) {
	return c.inner.FetchStageResults(ctx, userID)
}

// DeleteAllData clears the backing store and drops cached stage questions.
func (c *QuestionCache) DeleteAllData(ctx context.Context) error {
	if err := c.inner.DeleteAllData(ctx); err != nil {
		return err
	}
	iter := c.client.Scan(ctx, 0, "quiz:stage:*:questions", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
	return iter.Err()
}

func (c *QuestionCache) questionsKey(stageID string) string {
	return "quiz:stage:" + stageID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
