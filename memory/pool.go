package memory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Pool is the cross-encounter store. Memories are folded in whole at
// encounter end; discoveries can additionally be shared live between agents
// of the same side. Several encounters may share one pool.
type Pool struct {
	mu        sync.RWMutex
	memories  map[string]*Memory
	knowledge *Memory
}

func NewPool() *Pool {
	return &Pool{memories: make(map[string]*Memory), knowledge: New()}
}

// Fold merges a whole agent memory into the pool under agentKey.
func (p *Pool) Fold(agentKey string, m *Memory) {
	if m == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	dst := p.memories[agentKey]
	if dst == nil {
		dst = New()
		p.memories[agentKey] = dst
	}
	dst.Merge(m)
	p.knowledge.MergeKnowledge(m)
	slog.Debug("memory folded into pool", "agent", agentKey, "skills", len(m.Skills))
}

// Seed returns a private copy of what the pool remembers for agentKey.
func (p *Pool) Seed(agentKey string) *Memory {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if m := p.memories[agentKey]; m != nil {
		return m.Clone()
	}
	return New()
}

// Share publishes m's discoveries to the pool.
func (p *Pool) Share(m *Memory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.knowledge.MergeKnowledge(m)
}

// Teach copies the pool's discoveries into m.
func (p *Pool) Teach(m *Memory) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m.MergeKnowledge(p.knowledge)
}

// Len is the number of agent memories held.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.memories)
}

type poolFile struct {
	Memories  map[string]*Memory `yaml:"memories"`
	Knowledge *Memory            `yaml:"knowledge"`
}

// FileStore persists a pool as a single YAML document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the pool. A missing file is an empty pool, not an error.
func (s *FileStore) Load() (*Pool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewPool(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pool file %s: %w", s.path, err)
	}

	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal pool file %s: %w", s.path, err)
	}

	p := NewPool()
	for key, m := range f.Memories {
		if m == nil {
			continue
		}
		m.ensure()
		p.memories[key] = m
	}
	if f.Knowledge != nil {
		f.Knowledge.ensure()
		p.knowledge = f.Knowledge
	}
	return p, nil
}

// Save writes the pool, replacing the file in one rename.
func (s *FileStore) Save(p *Pool) error {
	p.mu.RLock()
	data, err := yaml.Marshal(poolFile{Memories: p.memories, Knowledge: p.knowledge})
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create pool directory %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write pool file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace pool file %s: %w", s.path, err)
	}
	return nil
}
