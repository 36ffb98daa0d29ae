package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"mock-interviewer/internal/domain"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.Update(ctx, domain.InterviewRecord{ID: "missing"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
	}

	rec := domain.InterviewRecord{ID: "s1", History: []domain.Turn{{Role: domain.RoleAssistant, Content: "Q1"}}}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got.History[0].Content = "mutated"
	got.History = append(got.History, domain.Turn{Role: domain.RoleUser, Content: "A1"})

	again, _ := repo.GetByID(ctx, "s1")
	if len(again.History) != 1 || again.History[0].Content != "Q1" {
		t.Fatalf("expected stored record isolated from caller, got %+v", again.History)
	}

	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	again, _ = repo.GetByID(ctx, "s1")
	if len(again.History) != 2 {
		t.Fatalf("expected updated history, got %+v", again.History)
	}
}

type mockRedisKV struct {
	data    map[string][]byte
	lastTTL time.Duration
	getErr  error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{data: make(map[string][]byte)}
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = value.([]byte)
	m.lastTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) SetXX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, ok := m.data[key]; !ok {
		cmd.SetVal(false)
		return cmd
	}
	m.data[key] = value.([]byte)
	m.lastTTL = expiration
	cmd.SetVal(true)
	return cmd
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

func TestRedisSessionRepository(t *testing.T) {
	kv := newMockRedisKV()
	repo := &RedisSessionRepository{client: kv, ttl: time.Hour, prefix: "interview:session:"}
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.Update(ctx, domain.InterviewRecord{ID: "s1"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
	}

	rec := domain.InterviewRecord{ID: "s1", Stage: domain.StageMedium, Answers: []string{"a"}}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := kv.data["interview:session:s1"]; !ok {
		t.Fatalf("expected prefixed key, got %v", kv.data)
	}
	if kv.lastTTL != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", kv.lastTTL)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Stage != domain.StageMedium || len(got.Answers) != 1 {
		t.Fatalf("unexpected record %+v", got)
	}

	got.Stage = domain.StageHard
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	again, _ := repo.GetByID(ctx, "s1")
	if again.Stage != domain.StageHard {
		t.Fatalf("expected updated stage, got %v", again.Stage)
	}

	kv.getErr = errors.New("redis down")
	if _, err := repo.GetByID(ctx, "s1"); err == nil || errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
