package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mock-interviewer/internal/domain"
)

// SessionRepository guarda el estado vivo de cada entrevista del Question Service.
type SessionRepository interface {
	Create(ctx context.Context, rec domain.InterviewRecord) error
	GetByID(ctx context.Context, id string) (domain.InterviewRecord, error)
	Update(ctx context.Context, rec domain.InterviewRecord) error
}

type MemorySessionRepository struct {
	mu    sync.Mutex
	items map[string]domain.InterviewRecord
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{items: make(map[string]domain.InterviewRecord)}
}

func (r *MemorySessionRepository) Create(_ context.Context, rec domain.InterviewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (domain.InterviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[id]
	if !ok {
		return domain.InterviewRecord{}, domain.ErrSessionNotFound
	}
	return cloneRecord(rec), nil
}

func (r *MemorySessionRepository) Update(_ context.Context, rec domain.InterviewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rec.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	r.items[rec.ID] = cloneRecord(rec)
	return nil
}

// cloneRecord evita que el llamador comparta slices con el store.
func cloneRecord(rec domain.InterviewRecord) domain.InterviewRecord {
	rec.History = append([]domain.Turn(nil), rec.History...)
	rec.Answers = append([]string(nil), rec.Answers...)
	rec.SecurityEvents = append([]domain.SecurityEvent(nil), rec.SecurityEvents...)
	return rec
}

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetXX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSessionRepository guarda cada sesión como JSON con TTL.
type RedisSessionRepository struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionRepository{
		client: client,
		ttl:    ttl,
		prefix: "interview:session:",
	}
}

func (r *RedisSessionRepository) Create(ctx context.Context, rec domain.InterviewRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.client.Set(ctx, r.prefix+rec.ID, payload, r.ttl).Err()
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id string) (domain.InterviewRecord, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.InterviewRecord{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.InterviewRecord{}, err
	}
	var rec domain.InterviewRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.InterviewRecord{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec, nil
}

// Update sólo escribe si la clave existe y renueva el TTL.
func (r *RedisSessionRepository) Update(ctx context.Context, rec domain.InterviewRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := r.client.SetXX(ctx, r.prefix+rec.ID, payload, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}
