package infrastructure

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"adintel/internal/domain"
	"adintel/pkg/logger"
)

type configEntry struct {
	data     json.RawMessage
	storedAt time.Time
}

// implements domain.ConfigRepository; an in-memory cache in front of the
// config store. A zero ttl never expires entries.
type ConfigRepository struct {
	data   map[string]configEntry
	ttl    time.Duration
	now    func() time.Time
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewConfigRepository(ttl time.Duration, logger *logger.Logger) *ConfigRepository {
	return &ConfigRepository{
		data:   make(map[string]configEntry),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func configKey(user, projectID string, kind domain.ConfigKind) string {
	return user + "\x1f" + projectID + "\x1f" + string(kind)
}

func (r *ConfigRepository) Get(ctx context.Context, user, projectID string, kind domain.ConfigKind) (json.RawMessage, bool) {
	r.mutex.RLock()
	entry, ok := r.data[configKey(user, projectID, kind)]
	r.mutex.RUnlock()

	if !ok {
		return nil, false
	}
	if r.ttl > 0 && r.now().Sub(entry.storedAt) > r.ttl {
		return nil, false
	}
	return entry.data, true
}

func (r *ConfigRepository) Put(ctx context.Context, user, projectID string, kind domain.ConfigKind, data json.RawMessage) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored := make(json.RawMessage, len(data))
	copy(stored, data)
	r.data[configKey(user, projectID, kind)] = configEntry{data: stored, storedAt: r.now()}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"kind":       kind,
	}).Debug("Cached config in memory")
	return nil
}

// drops every kind cached for the user and project
func (r *ConfigRepository) Invalidate(ctx context.Context, user, projectID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	prefix := user + "\x1f" + projectID + "\x1f"
	removed := 0
	for key := range r.data {
		if strings.HasPrefix(key, prefix) {
			delete(r.data, key)
			removed++
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"removed":    removed,
	}).Debug("Invalidated cached config")
}
