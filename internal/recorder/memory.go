package recorder

import (
	"sync"

	"ChartQuest/internal/model"
)

// MemoryStore keeps the progression record in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	prog model.Progression
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prog: model.DefaultProgression()}
}

func (m *MemoryStore) Load() (model.Progression, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prog, nil
}

func (m *MemoryStore) Update(fn func(model.Progression) model.Progression) (model.Progression, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prog = fn(m.prog)
	return m.prog, nil
}

func (m *MemoryStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prog = model.DefaultProgression()
	return nil
}
