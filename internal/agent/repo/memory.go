package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/jyotish-ai/server/internal/agent/model"
)

// MemoryConversationRepository is an in-process ConversationRepository
// for service and handler tests.
type MemoryConversationRepository struct {
	mu   sync.RWMutex
	logs map[string][]*schema.Message
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{logs: make(map[string][]*schema.Message)}
}

func (m *MemoryConversationRepository) AddMessage(_ context.Context, sessionID string, message *schema.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[sessionID] = append(m.logs[sessionID], message)
	return nil
}

func (m *MemoryConversationRepository) LoadHistory(_ context.Context, sessionID string) (*model.ConversationHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]*schema.Message, len(m.logs[sessionID]))
	copy(msgs, m.logs[sessionID])
	return &model.ConversationHistory{ConversationID: sessionID, Messages: msgs}, nil
}

func (m *MemoryConversationRepository) ClearHistory(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, sessionID)
	return nil
}

func (m *MemoryConversationRepository) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs[sessionID]), nil
}

// MemoryChartCache mirrors RedisChartCache insert-if-absent semantics.
type MemoryChartCache struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
}

func NewMemoryChartCache() *MemoryChartCache {
	return &MemoryChartCache{entries: make(map[string]model.CacheEntry)}
}

func (m *MemoryChartCache) Get(_ context.Context, id string) (model.CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e, ok, nil
}

func (m *MemoryChartCache) Put(_ context.Context, entry model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.ID]; !exists {
		m.entries[entry.ID] = entry
	}
	return nil
}

func (m *MemoryChartCache) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryChartCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MemoryAppConfig keeps the password override in process memory.
type MemoryAppConfig struct {
	mu  sync.RWMutex
	rec *model.PasswordRecord
}

func NewMemoryAppConfig() *MemoryAppConfig {
	return &MemoryAppConfig{}
}

func (m *MemoryAppConfig) GetPassword(_ context.Context) (model.PasswordRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil {
		return model.PasswordRecord{}, false, nil
	}
	return *m.rec, true, nil
}

func (m *MemoryAppConfig) SetPassword(_ context.Context, rec model.PasswordRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

var (
	_ model.ConversationRepository = (*MemoryConversationRepository)(nil)
	_ model.ChartCacheStore        = (*MemoryChartCache)(nil)
	_ model.AppConfigStore         = (*MemoryAppConfig)(nil)
)
