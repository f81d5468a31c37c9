package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"adintel/internal/domain"
)

func TestConfigRepositoryTTL(t *testing.T) {
	log, _ := testDeps()
	repo := NewConfigRepository(time.Minute, log)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	ctx := context.Background()
	data := json.RawMessage(`{"a":1}`)
	repo.Put(ctx, "ann", "47", domain.ConfigMetrics, data)
	data[2] = 'b'

	got, ok := repo.Get(ctx, "ann", "47", domain.ConfigMetrics)
	if !ok || string(got) != `{"a":1}` {
		t.Fatalf("Get = %s %v, want stored copy", got, ok)
	}

	if _, ok := repo.Get(ctx, "bob", "47", domain.ConfigMetrics); ok {
		t.Error("other user should miss")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := repo.Get(ctx, "ann", "47", domain.ConfigMetrics); ok {
		t.Error("expired entry should miss")
	}
}

func TestConfigRepositoryInvalidate(t *testing.T) {
	log, _ := testDeps()
	repo := NewConfigRepository(0, log)
	ctx := context.Background()

	repo.Put(ctx, "ann", "47", domain.ConfigMetrics, json.RawMessage(`1`))
	repo.Put(ctx, "ann", "47", domain.ConfigFormulas, json.RawMessage(`2`))
	repo.Put(ctx, "ann", "470", domain.ConfigFormulas, json.RawMessage(`3`))

	repo.Invalidate(ctx, "ann", "47")

	if _, ok := repo.Get(ctx, "ann", "47", domain.ConfigMetrics); ok {
		t.Error("metrics should be invalidated")
	}
	if _, ok := repo.Get(ctx, "ann", "47", domain.ConfigFormulas); ok {
		t.Error("formulas should be invalidated")
	}
	if got, ok := repo.Get(ctx, "ann", "470", domain.ConfigFormulas); !ok || string(got) != "3" {
		t.Error("project 470 must survive invalidating 47")
	}
}
