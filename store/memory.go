package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/scgo/codec"
	"github.com/hupe1980/scgo/model"
)

// MemoryStore is an in-memory Store implementation for tests and fixtures.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu       sync.RWMutex
	matrices map[string]*model.Matrix
	sparse   map[string]*model.SparseMatrix
	docs     map[string][]byte
	attrs    map[string]map[string]string
	nodes    map[string]struct{}
	codec    codec.Codec
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matrices: make(map[string]*model.Matrix),
		sparse:   make(map[string]*model.SparseMatrix),
		docs:     make(map[string][]byte),
		attrs:    make(map[string]map[string]string),
		nodes:    make(map[string]struct{}),
		codec:    codec.Default,
	}
}

// register records a node and all its ancestors.
func (m *MemoryStore) register(path string) {
	p := strings.Trim(path, "/")
	for p != "" {
		m.nodes[p] = struct{}{}
		i := strings.LastIndexByte(p, '/')
		if i < 0 {
			break
		}
		p = p[:i]
	}
}

// Exists reports whether a node exists at path.
func (m *MemoryStore) Exists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.nodes[strings.Trim(path, "/")]
	return ok, nil
}

// ListChildren returns the sorted direct children of path.
func (m *MemoryStore) ListChildren(_ context.Context, path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := strings.Trim(path, "/")
	if _, ok := m.nodes[p]; !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	prefix := p + "/"
	seen := make(map[string]struct{})
	for node := range m.nodes {
		if !strings.HasPrefix(node, prefix) {
			continue
		}
		rest := node[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		seen[rest] = struct{}{}
	}

	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	sort.Strings(children)
	return children, nil
}

// ReadMatrix reads the dense matrix payload at path.
func (m *MemoryStore) ReadMatrix(_ context.Context, path string) (*model.Matrix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := strings.Trim(path, "/")
	if mat, ok := m.matrices[p]; ok {
		return mat, nil
	}
	if _, ok := m.sparse[p]; ok {
		return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
	}
	if _, ok := m.docs[p]; ok {
		return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}

// ReadSparse reads the CSR sparse matrix payload at path.
func (m *MemoryStore) ReadSparse(_ context.Context, path string) (*model.SparseMatrix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := strings.Trim(path, "/")
	if sp, ok := m.sparse[p]; ok {
		return sp, nil
	}
	if _, ok := m.matrices[p]; ok {
		return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
	}
	if _, ok := m.docs[p]; ok {
		return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}

// ReadJSON decodes the JSON document payload at path into v.
func (m *MemoryStore) ReadJSON(_ context.Context, path string, v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := strings.Trim(path, "/")
	data, ok := m.docs[p]
	if !ok {
		if _, exists := m.matrices[p]; exists {
			return fmt.Errorf("%s: %w", path, ErrTypeMismatch)
		}
		if _, exists := m.sparse[p]; exists {
			return fmt.Errorf("%s: %w", path, ErrTypeMismatch)
		}
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return m.codec.Unmarshal(data, v)
}

// ReadAttr reads a node attribute; absent attributes return ok=false.
func (m *MemoryStore) ReadAttr(_ context.Context, path, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs, ok := m.attrs[strings.Trim(path, "/")]
	if !ok {
		return "", false, nil
	}
	v, ok := attrs[name]
	return v, ok, nil
}

// PutMatrix stores a dense matrix payload at path.
func (m *MemoryStore) PutMatrix(_ context.Context, path string, mat *model.Matrix) error {
	if err := mat.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := strings.Trim(path, "/")
	m.matrices[p] = mat
	m.register(p)
	return nil
}

// PutSparse stores a CSR sparse matrix payload at path.
func (m *MemoryStore) PutSparse(_ context.Context, path string, sp *model.SparseMatrix) error {
	if err := sp.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := strings.Trim(path, "/")
	m.sparse[p] = sp
	m.register(p)
	return nil
}

// PutJSON stores a JSON document payload at path.
func (m *MemoryStore) PutJSON(_ context.Context, path string, v any) error {
	data, err := m.codec.Marshal(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := strings.Trim(path, "/")
	m.docs[p] = data
	m.register(p)
	return nil
}

// SetAttr sets a node attribute, creating the node if needed.
func (m *MemoryStore) SetAttr(_ context.Context, path, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := strings.Trim(path, "/")
	if m.attrs[p] == nil {
		m.attrs[p] = make(map[string]string)
	}
	m.attrs[p][name] = value
	m.register(p)
	return nil
}

// MkNode creates an empty node at path (useful for family roots).
func (m *MemoryStore) MkNode(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.register(strings.Trim(path, "/"))
	return nil
}
